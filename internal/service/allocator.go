package service

import (
	"github.com/cockroachdb/errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// CodeSource hands out codes that avoid an exclude set.
type CodeSource interface {
	Generate(exclude map[string]struct{}) (string, error)
}

// SlotAllocator assigns import records to empty slots of a snapshot.
type SlotAllocator struct {
	codes CodeSource
}

func NewSlotAllocator(codes CodeSource) *SlotAllocator {
	return &SlotAllocator{codes: codes}
}

// Allocate pairs records[i] with the i-th empty slot of snapshot, both in
// order, and gives each a fresh code unused anywhere in the snapshot or
// earlier in the batch.  When there are fewer empty slots than records it
// fails with ErrInsufficientCapacity and allocates nothing.  The snapshot is
// only read.  Duplicate records are allocated independently.  A record with
// every identity field blank is ErrFormat, since its slot would still read
// as empty once written.
func (a *SlotAllocator) Allocate(records []model.ImportRecord, snapshot []model.TicketRow) ([]model.Allocation, error) {
	if len(records) == 0 {
		return []model.Allocation{}, nil
	}
	for i, rec := range records {
		if rec.IsBlank() {
			return nil, errors.Mark(errors.Newf("import row %d has no registrant data", i+1), ErrFormat)
		}
	}
	slots := make([]int, 0, len(records))
	used := make(map[string]struct{}, len(snapshot)+len(records))
	for _, row := range snapshot {
		if row.Code != "" {
			used[row.Code] = struct{}{}
		}
		if row.IsEmptySlot() && len(slots) < len(records) {
			slots = append(slots, row.Row)
		}
	}
	if len(slots) < len(records) {
		return nil, errors.Mark(
			errors.Newf("%d rows to import but only %d empty slots", len(records), len(slots)),
			ErrInsufficientCapacity)
	}
	out := make([]model.Allocation, 0, len(records))
	for i, rec := range records {
		code, err := a.codes.Generate(used)
		if err != nil {
			return nil, errors.Wrapf(err, "generating code for import row %d", i+1)
		}
		used[code] = struct{}{}
		out = append(out, model.Allocation{Row: slots[i], Code: code, Record: rec})
	}
	return out, nil
}
