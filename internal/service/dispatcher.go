package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-ticketing/internal/metrics"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/retry"
)

// Mailer delivers one ticket email.
type Mailer interface {
	Send(ctx context.Context, job model.DispatchJob) error
}

// DispatcherConfig tunes a NotificationDispatcher.
type DispatcherConfig struct {
	Workers     int           // pool width
	SendRetry   retry.Policy  // per-job mail attempts
	StatusRetry retry.Policy  // mail status write attempts
	Timeout     time.Duration // per remote call
}

// NotificationDispatcher mails tickets to every eligible row and marks each
// row SENT once its mail has gone out.
type NotificationDispatcher struct {
	cache   *repository.RecordCache
	store   repository.TicketStore
	mailer  Mailer
	events  Publisher
	cfg     DispatcherConfig
	running atomic.Bool
}

func NewNotificationDispatcher(cache *repository.RecordCache, store repository.TicketStore, mailer Mailer, events Publisher, cfg DispatcherConfig) *NotificationDispatcher {
	if cache == nil || store == nil || mailer == nil {
		panic("nil dependency passed to NewNotificationDispatcher")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &NotificationDispatcher{cache: cache, store: store, mailer: mailer, events: events, cfg: cfg}
}

// EligibleJobs lists, in row order, the rows that should get a ticket
// email: a code, an email, an uploaded image and no SENT mark.
func EligibleJobs(rows []model.TicketRow) []model.DispatchJob {
	var jobs []model.DispatchJob
	for _, r := range rows {
		if r.Code == "" || r.Email == "" || r.ImageLink == "" || r.MailStatus == model.MailSent {
			continue
		}
		jobs = append(jobs, model.DispatchJob{
			Row: r.Row, Email: r.Email, Code: r.Code, Name: r.Name, ImageLink: r.ImageLink,
		})
	}
	return jobs
}

// Run mails every eligible row using a fixed pool of workers fed from one
// channel.  A job whose sends all fail is counted as failed and keeps its
// NOT_SENT status, so the next run picks it up again; no job failure stops
// the others.  Only one run may be active per dispatcher.
//
// A crash between a successful send and its status write means the mail is
// sent again next run.  Delivery is at least once.
func (d *NotificationDispatcher) Run(ctx context.Context) (model.DispatchResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return model.DispatchResult{}, ErrDispatchInProgress
	}
	defer d.running.Store(false)

	rows, err := d.cache.ForceRefresh(ctx)
	if err != nil {
		return model.DispatchResult{}, errors.Wrap(err, "loading ticket snapshot")
	}
	jobs := EligibleJobs(rows)

	var attempted, sent, failed atomic.Int64
	queueCh := make(chan model.DispatchJob)
	var g errgroup.Group
	workers := d.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range queueCh {
				attempted.Add(1)
				if d.process(ctx, job) {
					sent.Add(1)
				} else {
					failed.Add(1)
				}
			}
			return nil
		})
	}
feed:
	for _, job := range jobs {
		select {
		case queueCh <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(queueCh)
	_ = g.Wait()

	res := model.DispatchResult{
		Attempted: int(attempted.Load()),
		Sent:      int(sent.Load()),
		Failed:    int(failed.Load()),
	}
	log.Infof("dispatch: %d eligible, %d attempted, %d sent, %d failed",
		len(jobs), res.Attempted, res.Sent, res.Failed)
	publishAsync(d.events, queue.NotificationsDispatchedKey, queue.NotificationsDispatchedEvent{
		EventID: newEventID(), Attempted: res.Attempted, Sent: res.Sent, Failed: res.Failed,
		FinishedAt: nowRFC3339(),
	})
	if err := ctx.Err(); err != nil {
		return res, errors.Wrap(err, "dispatch interrupted")
	}
	return res, nil
}

// process sends one job and, only after the send succeeded, marks the row
// SENT.  It reports whether both steps succeeded.
func (d *NotificationDispatcher) process(ctx context.Context, job model.DispatchJob) bool {
	err := d.cfg.SendRetry.Do(ctx, "mail "+job.Code, func() error {
		sctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
		return d.mailer.Send(sctx, job)
	})
	if err != nil {
		err = errors.Mark(errors.Wrapf(err, "mailing %s", job.Email), ErrDispatch)
		log.Errorf("dispatch: row %d code %s failed: %v", job.Row, job.Code, err)
		metrics.Mails.WithLabelValues("failed").Inc()
		return false
	}

	cell := repository.Cell(job.Row, repository.HeaderMailStatus)
	err = d.cfg.StatusRetry.Do(ctx, "mark "+cell, func() error {
		wctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
		return d.store.WriteCell(wctx, cell, string(model.MailSent))
	})
	if err != nil {
		log.Errorf("dispatch: row %d code %s mailed but %s not marked, it will be mailed again: %v",
			job.Row, job.Code, cell, err)
		metrics.Mails.WithLabelValues("failed").Inc()
		return false
	}
	metrics.Mails.WithLabelValues("sent").Inc()
	return true
}
