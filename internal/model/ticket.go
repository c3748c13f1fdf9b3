package model

import "strings"

// CheckinStatus tracks where a ticket is in its attendance lifecycle.
// Slots start UNREGISTERED, become REGISTERED when an import allocates
// them and CHECKED_IN when the holder is scanned at the door.
type CheckinStatus string

const (
    StatusUnregistered CheckinStatus = "UNREGISTERED"
    StatusRegistered   CheckinStatus = "REGISTERED"
    StatusCheckedIn    CheckinStatus = "CHECKED_IN"
)

// MailStatus records whether the ticket email has been delivered.
type MailStatus string

const (
    MailNotSent MailStatus = "NOT_SENT"
    MailSent    MailStatus = "SENT"
)

// ParseCheckinStatus maps a raw cell value to a CheckinStatus.  Empty cells
// are unregistered slots.  The legacy free-text value written by earlier
// check-in tooling ("đã check in") is still recognised.  ok is false when the
// value is not a known status.
func ParseCheckinStatus(raw string) (CheckinStatus, bool) {
    s := strings.TrimSpace(raw)
    switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
    case "", string(StatusUnregistered):
        return StatusUnregistered, true
    case string(StatusRegistered):
        return StatusRegistered, true
    case string(StatusCheckedIn):
        return StatusCheckedIn, true
    }
    switch strings.ToLower(s) {
    case "đã check in", "đã check_in":
        return StatusCheckedIn, true
    }
    return StatusUnregistered, false
}

// ParseMailStatus maps a raw cell value to a MailStatus.  Anything other
// than SENT is treated as not sent so a row is never skipped by mistake.
func ParseMailStatus(raw string) MailStatus {
    if strings.EqualFold(strings.TrimSpace(raw), string(MailSent)) {
        return MailSent
    }
    return MailNotSent
}

// TicketRow is one record of the ticket sheet.  Row is the 1-based sheet
// row and is only valid for the snapshot the row was read from.  Code is
// empty until the slot is allocated, and the identity fields (Name through
// Phone) are all empty on an unregistered slot.
type TicketRow struct {
    Row           int
    Code          string
    Name          string
    StudentID     string
    Class         string
    Email         string
    Phone         string
    ImageLink     string
    CheckinStatus CheckinStatus
    MailStatus    MailStatus
    PaymentMethod string
}

// IsEmptySlot reports whether every identity field is blank, which makes the
// row available for allocation.
func (t TicketRow) IsEmptySlot() bool {
    return t.Name == "" && t.StudentID == "" && t.Class == "" && t.Email == "" && t.Phone == ""
}

// ImportRecord is one registrant line of an import batch.
type ImportRecord struct {
    Name      string
    StudentID string
    Class     string
    Email     string
    Phone     string
}

// IsBlank reports whether the record carries no identity at all.  Writing
// it would leave a coded ticket that still reads as an empty slot.
func (r ImportRecord) IsBlank() bool {
    return r.Name == "" && r.StudentID == "" && r.Class == "" && r.Email == "" && r.Phone == ""
}

// Allocation pairs an import record with the slot it will be written to and
// the freshly generated code for that slot.
type Allocation struct {
    Row    int
    Code   string
    Record ImportRecord
}

// RegistrationUpdate carries the fields the registration desk may overwrite
// on an existing ticket.
type RegistrationUpdate struct {
    Name          string
    StudentID     string
    Email         string
    Phone         string
    PaymentMethod string
    Status        CheckinStatus
}

// DispatchJob is everything a notification worker needs to send one ticket
// email and mark it delivered.
type DispatchJob struct {
    Row       int
    Email     string
    Code      string
    Name      string
    ImageLink string
}

// DispatchResult summarises one notification run.
type DispatchResult struct {
    Attempted int `json:"attempted"`
    Sent      int `json:"sent"`
    Failed    int `json:"failed"`
}
