package repository

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// columnLetter converts a zero-based column index to its A1 letter form
// (0 -> A, 25 -> Z, 26 -> AA).
func columnLetter(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// columnIndex converts a column label like A or AA into its zero-based index.
func columnIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// cellRef is a parsed A1 cell: zero-based column, 1-based row.
type cellRef struct {
	col int
	row int
}

func parseCell(s string) (cellRef, error) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	col, ok := columnIndex(s[:i])
	if !ok {
		return cellRef{}, errors.Wrapf(ErrInvalidRange, "column in %q", s)
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return cellRef{}, errors.Wrapf(ErrInvalidRange, "row in %q", s)
	}
	return cellRef{col: col, row: row}, nil
}

// parseRange parses "A5", "A5:H5" or "Sheet1!A5:H5" into its corners.
func parseRange(rng string) (from, to cellRef, err error) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	parts := strings.SplitN(rng, ":", 2)
	if from, err = parseCell(parts[0]); err != nil {
		return cellRef{}, cellRef{}, err
	}
	to = from
	if len(parts) == 2 {
		if to, err = parseCell(parts[1]); err != nil {
			return cellRef{}, cellRef{}, err
		}
	}
	if to.col < from.col || to.row < from.row {
		return cellRef{}, cellRef{}, errors.Wrapf(ErrInvalidRange, "%q is inverted", rng)
	}
	return from, to, nil
}
