package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Registration desk form fields, all required.
var registrationFields = []string{"ten", "mssv", "mail", "sdt", "phuong_thuc_thanh_toan", "trang_thai"}

// ParseRegistrationUpdate validates a registration desk form.  A missing or
// blank field, or an unknown status, is ErrFormat.
func ParseRegistrationUpdate(form map[string]string) (model.RegistrationUpdate, error) {
	for _, f := range registrationFields {
		if strings.TrimSpace(form[f]) == "" {
			return model.RegistrationUpdate{}, errors.Mark(errors.Newf("missing field %q", f), ErrFormat)
		}
	}
	status, ok := model.ParseCheckinStatus(form["trang_thai"])
	if !ok {
		return model.RegistrationUpdate{}, errors.Mark(
			errors.Newf("unknown status %q", form["trang_thai"]), ErrFormat)
	}
	return model.RegistrationUpdate{
		Name:          strings.TrimSpace(form["ten"]),
		StudentID:     strings.TrimSpace(form["mssv"]),
		Email:         strings.TrimSpace(form["mail"]),
		Phone:         strings.TrimSpace(form["sdt"]),
		PaymentMethod: strings.TrimSpace(form["phuong_thuc_thanh_toan"]),
		Status:        status,
	}, nil
}

// RegistrationUpdater lets the registration desk correct an existing
// ticket's holder details, payment method and status.
type RegistrationUpdater struct {
	cache   *repository.RecordCache
	store   repository.TicketStore
	timeout time.Duration
}

func NewRegistrationUpdater(cache *repository.RecordCache, store repository.TicketStore, timeout time.Duration) *RegistrationUpdater {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RegistrationUpdater{cache: cache, store: store, timeout: timeout}
}

// Update overwrites the ticket's cells in one batch write, resolving the row
// from a fresh snapshot first.  The class column is left as imported.
func (u *RegistrationUpdater) Update(ctx context.Context, code string, upd model.RegistrationUpdate) (model.TicketRow, error) {
	rows, err := u.cache.ForceRefresh(ctx)
	if err != nil {
		return model.TicketRow{}, errors.Wrap(err, "loading ticket snapshot")
	}
	row, err := findByCode(rows, code)
	if err != nil {
		return model.TicketRow{}, err
	}
	cell := func(h string, v string) repository.RangeWrite {
		return repository.RangeWrite{Range: repository.Cell(row.Row, h), Values: [][]interface{}{{v}}}
	}
	writes := []repository.RangeWrite{
		cell(repository.HeaderName, upd.Name),
		cell(repository.HeaderStudentID, upd.StudentID),
		cell(repository.HeaderEmail, upd.Email),
		cell(repository.HeaderPhone, upd.Phone),
		cell(repository.HeaderStatus, string(upd.Status)),
		cell(repository.HeaderPayment, upd.PaymentMethod),
	}
	wctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	if err := u.store.BatchWrite(wctx, writes); err != nil {
		return model.TicketRow{}, errors.Mark(errors.Wrapf(err, "updating ticket %s", row.Code), ErrWrite)
	}
	row.Name, row.StudentID, row.Email, row.Phone = upd.Name, upd.StudentID, upd.Email, upd.Phone
	row.PaymentMethod, row.CheckinStatus = upd.PaymentMethod, upd.Status
	return row, nil
}
