package service

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// ImportHeader is the exact header an import file must start with.
var ImportHeader = []string{"TEN", "MSSV", "LOP", "MAIL", "SDT"}

// ParseImport reads a CSV import batch.  The header must match
// ImportHeader exactly (a UTF-8 BOM and surrounding spaces aside) and every
// line must have exactly that many fields; anything else is ErrFormat and
// no records are returned.  Blank lines are skipped, but a line whose fields
// are all blank is ErrFormat.
func ParseImport(r io.Reader) ([]model.ImportRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Mark(errors.New("import file is empty"), ErrFormat)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "reading import header"), ErrFormat)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !sameHeader(header, ImportHeader) {
		return nil, errors.Mark(
			errors.Newf("import header %q, want %q", header, ImportHeader), ErrFormat)
	}

	var out []model.ImportRecord
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "reading import file"), ErrFormat)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(ImportHeader) {
			return nil, errors.Mark(
				errors.Newf("import line %d has %d fields, want %d", line, len(rec), len(ImportHeader)), ErrFormat)
		}
		r := model.ImportRecord{
			Name:      strings.TrimSpace(rec[0]),
			StudentID: strings.TrimSpace(rec[1]),
			Class:     strings.TrimSpace(rec[2]),
			Email:     strings.TrimSpace(rec[3]),
			Phone:     strings.TrimSpace(rec[4]),
		}
		if r.IsBlank() {
			return nil, errors.Mark(errors.Newf("import line %d has no registrant data", line), ErrFormat)
		}
		out = append(out, r)
	}
	return out, nil
}

func sameHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}
