package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/metrics"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/retry"
)

// Renderer produces the ticket image for a code.
type Renderer interface {
	Render(code string) ([]byte, error)
}

// AllocationPipeline turns an import batch into one batch write of
// registered tickets.
type AllocationPipeline struct {
	cache     *repository.RecordCache
	store     repository.TicketStore
	files     repository.FileStore
	renderer  Renderer
	allocator *SlotAllocator
	events    Publisher
	retry     retry.Policy
	timeout   time.Duration

	// mu serializes imports: two interleaved imports in this process would
	// read the same empty slots.  There is no equivalent across processes.
	mu sync.Mutex
}

// PipelineDeps bundles the collaborators of an AllocationPipeline.
type PipelineDeps struct {
	Cache     *repository.RecordCache
	Store     repository.TicketStore
	Files     repository.FileStore
	Renderer  Renderer
	Allocator *SlotAllocator
	Events    Publisher     // optional
	Retry     retry.Policy  // applied to uploads
	Timeout   time.Duration // per remote call
}

// NewAllocationPipeline panics if a required dependency is nil.
func NewAllocationPipeline(d PipelineDeps) *AllocationPipeline {
	if d.Cache == nil || d.Store == nil || d.Files == nil || d.Renderer == nil || d.Allocator == nil {
		panic("nil dependency passed to NewAllocationPipeline")
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	return &AllocationPipeline{
		cache:     d.Cache,
		store:     d.Store,
		files:     d.Files,
		renderer:  d.Renderer,
		allocator: d.Allocator,
		events:    d.Events,
		retry:     d.Retry,
		timeout:   d.Timeout,
	}
}

// ImportBatch allocates records to empty slots, renders and uploads one
// ticket image per allocation, then writes every allocated row in a single
// batch.  Each row is written across every column so a reused slot keeps
// neither the mail status nor the payment method of its previous holder.
// No write is issued unless every image is uploaded.  A failed or
// timed-out batch write is ErrWrite and is not retried here: the sheet may
// or may not hold the rows, and resubmitting blindly could allocate the
// same people twice.  It returns the number of rows written.
func (p *AllocationPipeline) ImportBatch(ctx context.Context, records []model.ImportRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.importLocked(ctx, records)
	metrics.ImportBatches.WithLabelValues(resultLabel(err)).Inc()
	return n, err
}

func (p *AllocationPipeline) importLocked(ctx context.Context, records []model.ImportRecord) (int, error) {
	snapshot, err := p.cache.ForceRefresh(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "loading ticket snapshot")
	}
	allocs, err := p.allocator.Allocate(records, snapshot)
	if err != nil {
		return 0, err
	}

	writes := make([]repository.RangeWrite, 0, len(allocs))
	for _, a := range allocs {
		link, err := p.artifact(ctx, a.Code)
		if err != nil {
			return 0, errors.Wrapf(err, "import aborted at row %d, nothing written", a.Row)
		}
		r := a.Record
		writes = append(writes, repository.RangeWrite{
			Range: repository.RowRange(a.Row, repository.HeaderCode, repository.HeaderPayment),
			Values: [][]interface{}{{
				a.Code, r.Name, r.StudentID, r.Class, r.Email, r.Phone, link,
				string(model.StatusRegistered), string(model.MailNotSent), "",
			}},
		})
	}

	wctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.store.BatchWrite(wctx, writes); err != nil {
		log.Errorf("import: batch write of %d rows failed, sheet state unknown: %v", len(writes), err)
		return 0, errors.Mark(errors.Wrapf(err, "writing %d allocated rows", len(writes)), ErrWrite)
	}

	metrics.TicketsAllocated.Add(float64(len(allocs)))
	ev := queue.TicketsImportedEvent{EventID: newEventID(), Count: len(allocs), ImportedAt: nowRFC3339()}
	for _, a := range allocs {
		ev.Rows = append(ev.Rows, a.Row)
		ev.Codes = append(ev.Codes, a.Code)
	}
	publishAsync(p.events, queue.TicketsImportedKey, ev)
	log.Infof("import: wrote %d tickets", len(allocs))
	return len(allocs), nil
}

// artifact renders and uploads the ticket image for code.
func (p *AllocationPipeline) artifact(ctx context.Context, code string) (string, error) {
	img, err := p.renderer.Render(code)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "rendering ticket %s", code), ErrRender)
	}
	var link string
	err = p.retry.Do(ctx, "upload "+code, func() error {
		uctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		var err error
		link, err = p.files.Upload(uctx, img, code+".png")
		return err
	})
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "uploading ticket %s", code), ErrUpload)
	}
	return link, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrInsufficientCapacity):
		return "capacity"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrWrite):
		return "write"
	}
	return "error"
}
