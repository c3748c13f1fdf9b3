package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func TestColumnLetters(t *testing.T) {
	for i, want := range map[int]string{0: "A", 7: "H", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"} {
		assert.Equal(t, want, columnLetter(i))
		got, ok := columnIndex(want)
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}
	_, ok := columnIndex("A1")
	assert.False(t, ok)
}

func TestLayoutRanges(t *testing.T) {
	assert.Equal(t, "A7:H7", RowRange(7, HeaderCode, HeaderStatus))
	assert.Equal(t, "I12", Cell(12, HeaderMailStatus))
	assert.Equal(t, "J", Column(HeaderPayment))
	assert.Panics(t, func() { Column("NOPE") })
}

func TestParseRange(t *testing.T) {
	from, to, err := parseRange("Sheet1!B3:D4")
	require.NoError(t, err)
	assert.Equal(t, cellRef{col: 1, row: 3}, from)
	assert.Equal(t, cellRef{col: 3, row: 4}, to)

	_, _, err = parseRange("D4:B3")
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, _, err = parseRange("4B")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStoreWithSlots(2)

	err := m.BatchWrite(ctx, []RangeWrite{{
		Range:  RowRange(3, HeaderCode, HeaderStatus),
		Values: [][]interface{}{{"K9X2", "An", "2011", "K45", "an@example.com", "0901", "https://x/K9X2.png", "REGISTERED"}},
	}})
	require.NoError(t, err)

	records, err := m.ReadAll(ctx)
	require.NoError(t, err)
	rows := TicketsFromRecords(records)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].IsEmptySlot())
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, model.TicketRow{
		Row: 3, Code: "K9X2", Name: "An", StudentID: "2011", Class: "K45",
		Email: "an@example.com", Phone: "0901", ImageLink: "https://x/K9X2.png",
		CheckinStatus: model.StatusRegistered, MailStatus: model.MailNotSent,
	}, rows[1])
}

func TestMemoryStoreRejectsBadBatchAtomically(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStoreWithSlots(1)
	err := m.BatchWrite(ctx, []RangeWrite{
		{Range: "A2", Values: [][]interface{}{{"X"}}},
		{Range: "??", Values: [][]interface{}{{"Y"}}},
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, "", m.Value("A2"))
}

func TestMemoryStoreProtectsHeader(t *testing.T) {
	err := NewMemoryStore().WriteCell(context.Background(), "A1", "X")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRecordsKeepEmptyRowsAligned(t *testing.T) {
	values := [][]interface{}{
		{"CODE", "TEN"},
		{"A1B2", "Binh"},
		{},
		{"C3D4"},
	}
	rows := TicketsFromRecords(recordsFromValues(values))
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[1].Row)
	assert.Equal(t, "", rows[1].Code)
	assert.Equal(t, 4, rows[2].Row)
	assert.Equal(t, "C3D4", rows[2].Code)
	assert.Equal(t, "", rows[2].Name)
}

func TestLegacyCheckinStatusIsRecognised(t *testing.T) {
	rows := TicketsFromRecords([]map[string]string{{HeaderStatus: "đã check in"}})
	assert.Equal(t, model.StatusCheckedIn, rows[0].CheckinStatus)
}
