package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/retry"
)

// sheetRow builds a data row in sheet column order.
func sheetRow(code, name, mssv, lop, mail, sdt, link, status, mailStatus string) []string {
	return []string{code, name, mssv, lop, mail, sdt, link, status, mailStatus, ""}
}

func emptySlot() []string {
	return sheetRow("", "", "", "", "", "", "", "UNREGISTERED", "")
}

// recordingStore wraps a MemoryStore, records every write and can be told to
// fail them.
type recordingStore struct {
	*repository.MemoryStore

	mu       sync.Mutex
	batches  [][]repository.RangeWrite
	cells    []string
	batchErr error
	cellErr  func(cell string) error
}

func newRecordingStore(rows ...[]string) *recordingStore {
	return &recordingStore{MemoryStore: repository.NewMemoryStore(rows...)}
}

func (s *recordingStore) BatchWrite(ctx context.Context, writes []repository.RangeWrite) error {
	s.mu.Lock()
	s.batches = append(s.batches, writes)
	err := s.batchErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.BatchWrite(ctx, writes)
}

func (s *recordingStore) WriteCell(ctx context.Context, cell string, value interface{}) error {
	s.mu.Lock()
	s.cells = append(s.cells, cell)
	fail := s.cellErr
	s.mu.Unlock()
	if fail != nil {
		if err := fail(cell); err != nil {
			return err
		}
	}
	return s.MemoryStore.WriteCell(ctx, cell, value)
}

func (s *recordingStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *recordingStore) cellWrites(cell string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.cells {
		if c == cell {
			n++
		}
	}
	return n
}

func newTestCache(store repository.TicketStore) *repository.RecordCache {
	return repository.NewRecordCache(store, time.Minute, repository.WithRetry(retry.None()))
}

// fakeRenderer returns the code as the image and fails on the failAt-th call
// when failAt is set.
type fakeRenderer struct {
	mu     sync.Mutex
	calls  int
	failAt int
}

func (r *fakeRenderer) Render(code string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failAt > 0 && r.calls == r.failAt {
		return nil, errors.New("template decode failed")
	}
	return []byte(code), nil
}

// fakeFiles keeps uploads in memory.
type fakeFiles struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	failures int
}

func (f *fakeFiles) Upload(_ context.Context, data []byte, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return "", errors.New("bucket unavailable")
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[name] = data
	return "https://files.test/" + name, nil
}

func (f *fakeFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// listCodes hands out the first listed code not yet excluded.
type listCodes []string

func (l listCodes) Generate(exclude map[string]struct{}) (string, error) {
	for _, c := range l {
		if _, ok := exclude[c]; !ok {
			return c, nil
		}
	}
	return "", errors.New("code list exhausted")
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []interface{}
	done   chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{done: make(chan struct{}, 16)}
}

func (p *recordingPublisher) Publish(_ context.Context, key string, ev interface{}) error {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, ev)
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func (p *recordingPublisher) wait(t interface{ Fatalf(string, ...interface{}) }) {
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("no event published")
	}
}

func records(n int) []model.ImportRecord {
	out := make([]model.ImportRecord, n)
	for i := range out {
		out[i] = model.ImportRecord{
			Name:      "Student " + string(rune('A'+i)),
			StudentID: "2212" + string(rune('0'+i)),
			Class:     "CTK46",
			Email:     "s" + string(rune('a'+i)) + "@example.edu",
			Phone:     "090000000" + string(rune('0'+i)),
		}
	}
	return out
}
