package repository

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RangeWrite is one A1 range and the values to put in it.
type RangeWrite struct {
	Range  string
	Values [][]interface{}
}

// TicketStore is the remote tabular store holding the ticket sheet.  Every
// call is a network round trip and there is no transaction or lock
// primitive: callers own the consistency discipline.  Ranges are A1
// references relative to the ticket sheet.
type TicketStore interface {
	// ReadAll returns every data row keyed by header, in sheet order.
	ReadAll(ctx context.Context) ([]map[string]string, error)
	WriteRange(ctx context.Context, rng string, values [][]interface{}) error
	BatchWrite(ctx context.Context, writes []RangeWrite) error
	WriteCell(ctx context.Context, cell string, value interface{}) error
}

// valueInput keeps codes like "000123" as text instead of letting Sheets
// coerce them into numbers.
const valueInput = "RAW"

// SheetStore is a TicketStore backed by one tab of a Google spreadsheet.
type SheetStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string
}

// NewSheetStore authenticates with a service-account key file and returns a
// store bound to the given spreadsheet tab.
func NewSheetStore(ctx context.Context, credentialsFile, spreadsheetID, sheet string) (*SheetStore, error) {
	key, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading credentials %s", credentialsFile)
	}
	conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets token source from credentials")
	}
	svc, err := sheets.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sheets client")
	}
	return &SheetStore{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func (s *SheetStore) a1(rng string) string { return s.sheet + "!" + rng }

// ReadAll fetches the whole tab in one call.
func (s *SheetStore) ReadAll(ctx context.Context) ([]map[string]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheet).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", s.sheet)
	}
	return recordsFromValues(resp.Values), nil
}

func (s *SheetStore) WriteRange(ctx context.Context, rng string, values [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, s.a1(rng), &sheets.ValueRange{Values: values}).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	return errors.Wrapf(err, "writing %s", rng)
}

// BatchWrite submits all ranges in a single values:batchUpdate request.
func (s *SheetStore) BatchWrite(ctx context.Context, writes []RangeWrite) error {
	if len(writes) == 0 {
		return nil
	}
	data := make([]*sheets.ValueRange, 0, len(writes))
	for _, w := range writes {
		data = append(data, &sheets.ValueRange{Range: s.a1(w.Range), Values: w.Values})
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: valueInput, Data: data}
	_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return errors.Wrapf(err, "batch writing %d ranges", len(writes))
}

func (s *SheetStore) WriteCell(ctx context.Context, cell string, value interface{}) error {
	return s.WriteRange(ctx, cell, [][]interface{}{{value}})
}
