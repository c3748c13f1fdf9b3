package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/metrics"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/retry"
)

// CheckinService looks tickets up by code and checks their holders in.
type CheckinService struct {
	cache   *repository.RecordCache
	store   repository.TicketStore
	events  Publisher
	retry   retry.Policy
	timeout time.Duration
}

func NewCheckinService(cache *repository.RecordCache, store repository.TicketStore, events Publisher, p retry.Policy, timeout time.Duration) *CheckinService {
	if cache == nil || store == nil {
		panic("nil dependency passed to NewCheckinService")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CheckinService{cache: cache, store: store, events: events, retry: p, timeout: timeout}
}

// Lookup reads through the cache, so a ticket allocated within the last TTL
// may not be visible yet.
func (s *CheckinService) Lookup(ctx context.Context, code string) (model.TicketRow, error) {
	rows, err := s.cache.Get(ctx)
	if err != nil {
		return model.TicketRow{}, errors.Wrap(err, "loading ticket snapshot")
	}
	return findByCode(rows, code)
}

// Checkin marks the ticket CHECKED_IN.  Row positions are only meaningful
// for the snapshot they were read from, so the row is resolved against a
// fresh snapshot right before the single-cell write.  Checking in twice
// writes the same value twice and succeeds.  The returned row reflects the
// new status.
func (s *CheckinService) Checkin(ctx context.Context, code string) (model.TicketRow, error) {
	rows, err := s.cache.ForceRefresh(ctx)
	if err != nil {
		return model.TicketRow{}, errors.Wrap(err, "loading ticket snapshot")
	}
	row, err := findByCode(rows, code)
	if err != nil {
		return model.TicketRow{}, err
	}
	cell := repository.Cell(row.Row, repository.HeaderStatus)
	err = s.retry.Do(ctx, "check in "+row.Code, func() error {
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.store.WriteCell(wctx, cell, string(model.StatusCheckedIn))
	})
	if err != nil {
		return model.TicketRow{}, errors.Wrapf(err, "writing %s", cell)
	}
	if row.CheckinStatus == model.StatusCheckedIn {
		log.Infof("checkin: %s (row %d) was already checked in", row.Code, row.Row)
	}
	row.CheckinStatus = model.StatusCheckedIn
	metrics.Checkins.Inc()
	publishAsync(s.events, queue.TicketCheckedInKey, queue.TicketCheckedInEvent{
		EventID: newEventID(), Code: row.Code, Row: row.Row, Name: row.Name,
		StudentID: row.StudentID, Class: row.Class, CheckedInAt: nowRFC3339(),
	})
	return row, nil
}

func findByCode(rows []model.TicketRow, code string) (model.TicketRow, error) {
	code = strings.TrimSpace(code)
	if code != "" {
		for _, r := range rows {
			if r.Code == code {
				return r, nil
			}
		}
	}
	return model.TicketRow{}, errors.Mark(errors.Newf("no ticket with code %q", code), ErrNotFound)
}
