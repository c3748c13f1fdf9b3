package service

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func validForm() map[string]string {
	return map[string]string{
		"ten":                    "Nguyen Van An",
		"mssv":                   "2212001",
		"mail":                   "an@example.edu",
		"sdt":                    "0901",
		"phuong_thuc_thanh_toan": "cash",
		"trang_thai":             "registered",
	}
}

func TestParseRegistrationUpdate(t *testing.T) {
	upd, err := ParseRegistrationUpdate(validForm())
	require.NoError(t, err)
	assert.Equal(t, model.StatusRegistered, upd.Status)
	assert.Equal(t, "cash", upd.PaymentMethod)

	for _, field := range registrationFields {
		form := validForm()
		form[field] = "  "
		_, err := ParseRegistrationUpdate(form)
		assert.True(t, errors.Is(err, ErrFormat), "blank %s: got %v", field, err)
	}

	form := validForm()
	form["trang_thai"] = "paid"
	_, err = ParseRegistrationUpdate(form)
	assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
}

func TestRegistrationUpdateWritesOneBatch(t *testing.T) {
	store := newRecordingStore(
		sheetRow("TICKET01", "An", "1", "CTK46", "old@example.edu", "0900", "link", "REGISTERED", "SENT"),
	)
	u := NewRegistrationUpdater(newTestCache(store), store, 0)
	upd, err := ParseRegistrationUpdate(validForm())
	require.NoError(t, err)

	row, err := u.Update(context.Background(), "TICKET01", upd)
	require.NoError(t, err)
	assert.Equal(t, "an@example.edu", row.Email)

	require.Equal(t, 1, store.batchCount())
	assert.Len(t, store.batches[0], 6)
	assert.Equal(t, "Nguyen Van An", store.Value("B2"))
	assert.Equal(t, "CTK46", store.Value("D2"), "class is not overwritten")
	assert.Equal(t, "an@example.edu", store.Value("E2"))
	assert.Equal(t, "REGISTERED", store.Value("H2"))
	assert.Equal(t, "SENT", store.Value("I2"))
	assert.Equal(t, "cash", store.Value("J2"))
}

func TestRegistrationUpdateErrors(t *testing.T) {
	store := newRecordingStore(emptySlot())
	u := NewRegistrationUpdater(newTestCache(store), store, 0)
	upd, _ := ParseRegistrationUpdate(validForm())

	_, err := u.Update(context.Background(), "MISSING1", upd)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	require.NoError(t, store.MemoryStore.WriteCell(context.Background(), "A2", "TICKET09"))
	store.batchErr = errors.New("quota")
	_, err = u.Update(context.Background(), "TICKET09", upd)
	assert.True(t, errors.Is(err, ErrWrite), "got %v", err)
}
