package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
)

// MemoryStore is an in-process TicketStore.  It backs local runs without
// Google credentials (STORE_DRIVER=memory) and the service tests.  Cell
// values are kept as strings, like the sheet renders them.
type MemoryStore struct {
	mu   sync.Mutex
	grid [][]string // grid[0] is the header row
}

// NewMemoryStore returns a store holding the standard header row followed by
// the given data rows.
func NewMemoryStore(rows ...[]string) *MemoryStore {
	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, append([]string(nil), Headers...))
	for _, r := range rows {
		grid = append(grid, append([]string(nil), r...))
	}
	return &MemoryStore{grid: grid}
}

// NewMemoryStoreWithSlots returns a store with n unregistered slots, each
// marked with the UNREGISTERED status so the rows exist.
func NewMemoryStoreWithSlots(n int) *MemoryStore {
	rows := make([][]string, n)
	status, _ := columnIndex(Column(HeaderStatus))
	for i := range rows {
		rows[i] = make([]string, len(Headers))
		rows[i][status] = "UNREGISTERED"
	}
	return NewMemoryStore(rows...)
}

func (m *MemoryStore) ReadAll(_ context.Context) ([]map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make([][]interface{}, len(m.grid))
	for i, row := range m.grid {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return recordsFromValues(values), nil
}

func (m *MemoryStore) WriteRange(_ context.Context, rng string, values [][]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(rng, values)
}

// BatchWrite validates every range before applying any of them.
func (m *MemoryStore) BatchWrite(_ context.Context, writes []RangeWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if _, _, err := parseRange(w.Range); err != nil {
			return err
		}
	}
	for _, w := range writes {
		if err := m.writeLocked(w.Range, w.Values); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) WriteCell(ctx context.Context, cell string, value interface{}) error {
	return m.WriteRange(ctx, cell, [][]interface{}{{value}})
}

func (m *MemoryStore) writeLocked(rng string, values [][]interface{}) error {
	from, to, err := parseRange(rng)
	if err != nil {
		return err
	}
	if from.row == 1 {
		return errors.Wrapf(ErrInvalidRange, "%q overwrites the header row", rng)
	}
	if len(values) > to.row-from.row+1 {
		return errors.Wrapf(ErrInvalidRange, "%d rows do not fit %q", len(values), rng)
	}
	for i, vals := range values {
		if len(vals) > to.col-from.col+1 {
			return errors.Wrapf(ErrInvalidRange, "%d columns do not fit %q", len(vals), rng)
		}
		r := from.row - 1 + i
		for len(m.grid) <= r {
			m.grid = append(m.grid, nil)
		}
		for j, v := range vals {
			c := from.col + j
			for len(m.grid[r]) <= c {
				m.grid[r] = append(m.grid[r], "")
			}
			m.grid[r][c] = fmt.Sprint(v)
		}
	}
	return nil
}

// Value returns the current content of one cell, "" when it was never set.
func (m *MemoryStore) Value(cell string) string {
	c, err := parseCell(cell)
	if err != nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.row-1 >= len(m.grid) || c.col >= len(m.grid[c.row-1]) {
		return ""
	}
	return m.grid[c.row-1][c.col]
}
