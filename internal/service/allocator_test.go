package service

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func snapshotOf(rows ...model.TicketRow) []model.TicketRow {
	for i := range rows {
		rows[i].Row = i + 2
	}
	return rows
}

func TestAllocateFillsEmptySlotsInOrder(t *testing.T) {
	snap := snapshotOf(
		model.TicketRow{Code: "AAAA", Name: "Taken", Email: "t@example.edu", CheckinStatus: model.StatusRegistered},
		model.TicketRow{},
		model.TicketRow{Code: "BBBB", Name: "Also taken"},
		model.TicketRow{},
		model.TicketRow{},
	)
	a := NewSlotAllocator(listCodes{"AAAA", "BBBB", "CCCC", "DDDD", "EEEE"})

	allocs, err := a.Allocate(records(2), snap)
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	assert.Equal(t, 3, allocs[0].Row)
	assert.Equal(t, 5, allocs[1].Row)
	assert.Equal(t, "CCCC", allocs[0].Code, "codes already in the sheet are skipped")
	assert.Equal(t, "DDDD", allocs[1].Code, "codes allocated earlier in the batch are skipped")
	assert.Equal(t, records(2)[1], allocs[1].Record)
}

func TestAllocateExactCapacity(t *testing.T) {
	snap := snapshotOf(model.TicketRow{}, model.TicketRow{}, model.TicketRow{})
	allocs, err := NewSlotAllocator(NewCodeGenerator(8)).Allocate(records(3), snap)
	require.NoError(t, err)
	require.Len(t, allocs, 3)

	seen := map[string]bool{}
	for i, al := range allocs {
		assert.Equal(t, i+2, al.Row)
		assert.False(t, seen[al.Code])
		seen[al.Code] = true
	}
}

func TestAllocateInsufficientCapacity(t *testing.T) {
	snap := snapshotOf(
		model.TicketRow{},
		model.TicketRow{Code: "AAAA", Name: "Taken"},
		model.TicketRow{},
	)
	before := append([]model.TicketRow(nil), snap...)

	allocs, err := NewSlotAllocator(NewCodeGenerator(8)).Allocate(records(3), snap)
	assert.Nil(t, allocs)
	assert.True(t, errors.Is(err, ErrInsufficientCapacity), "got %v", err)
	assert.Equal(t, before, snap)
}

func TestAllocateNothing(t *testing.T) {
	allocs, err := NewSlotAllocator(NewCodeGenerator(8)).Allocate(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, allocs)
	assert.NotNil(t, allocs)
}

func TestAllocateSurfacesCodeExhaustion(t *testing.T) {
	snap := snapshotOf(model.TicketRow{}, model.TicketRow{})
	_, err := NewSlotAllocator(listCodes{"ONLY"}).Allocate(records(2), snap)
	assert.Error(t, err)
}

func TestAllocateRejectsBlankRecord(t *testing.T) {
	snap := snapshotOf(model.TicketRow{}, model.TicketRow{})
	recs := []model.ImportRecord{records(1)[0], {}}

	allocs, err := NewSlotAllocator(NewCodeGenerator(8)).Allocate(recs, snap)
	assert.Nil(t, allocs)
	assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
}
