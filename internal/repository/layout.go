package repository

import (
	"fmt"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// Sheet headers, in column order starting at A.
const (
	HeaderCode       = "CODE"
	HeaderName       = "TEN"
	HeaderStudentID  = "MSSV"
	HeaderClass      = "LOP"
	HeaderEmail      = "MAIL"
	HeaderPhone      = "SDT"
	HeaderImageLink  = "LINK_ANH"
	HeaderStatus     = "TRANG_THAI"
	HeaderMailStatus = "MAIL_STATUS"
	HeaderPayment    = "PTTT"
)

// Headers is the full header row of the ticket sheet.
var Headers = []string{
	HeaderCode, HeaderName, HeaderStudentID, HeaderClass, HeaderEmail,
	HeaderPhone, HeaderImageLink, HeaderStatus, HeaderMailStatus, HeaderPayment,
}

// FirstDataRow is the sheet row of the first ticket; row 1 holds the headers.
const FirstDataRow = 2

// Column returns the A1 column letter of a header.  It panics on an unknown
// header since the layout is fixed at compile time.
func Column(header string) string {
	for i, h := range Headers {
		if h == header {
			return columnLetter(i)
		}
	}
	panic(fmt.Sprintf("unknown sheet header %q", header))
}

// RowRange returns the A1 range spanning two headers on one row,
// e.g. RowRange(7, HeaderCode, HeaderStatus) == "A7:H7".
func RowRange(row int, fromHeader, toHeader string) string {
	return fmt.Sprintf("%s%d:%s%d", Column(fromHeader), row, Column(toHeader), row)
}

// Cell returns the A1 reference of one header's cell on a row.
func Cell(row int, header string) string {
	return fmt.Sprintf("%s%d", Column(header), row)
}

// TicketsFromRecords converts header-keyed records, in sheet order, into
// ticket rows.  The i-th record sits on sheet row i+FirstDataRow.
func TicketsFromRecords(records []map[string]string) []model.TicketRow {
	out := make([]model.TicketRow, 0, len(records))
	for i, r := range records {
		status, _ := model.ParseCheckinStatus(r[HeaderStatus])
		out = append(out, model.TicketRow{
			Row:           i + FirstDataRow,
			Code:          strings.TrimSpace(r[HeaderCode]),
			Name:          strings.TrimSpace(r[HeaderName]),
			StudentID:     strings.TrimSpace(r[HeaderStudentID]),
			Class:         strings.TrimSpace(r[HeaderClass]),
			Email:         strings.TrimSpace(r[HeaderEmail]),
			Phone:         strings.TrimSpace(r[HeaderPhone]),
			ImageLink:     strings.TrimSpace(r[HeaderImageLink]),
			CheckinStatus: status,
			MailStatus:    model.ParseMailStatus(r[HeaderMailStatus]),
			PaymentMethod: strings.TrimSpace(r[HeaderPayment]),
		})
	}
	return out
}

// recordsFromValues maps a raw value grid (header row first) to
// header-keyed records.  Short rows are padded with empty strings and fully
// empty rows are kept so row positions stay aligned with the sheet.
func recordsFromValues(values [][]interface{}) []map[string]string {
	if len(values) == 0 {
		return nil
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(h))
	}
	out := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(row) && row[i] != nil {
				rec[h] = fmt.Sprint(row[i])
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}
