// Package queue defines message payloads exchanged over the message broker.
package queue

// Routing keys, also used as durable queue names on the default exchange.
const (
    TicketsImportedKey         = "tickets.imported"
    TicketCheckedInKey         = "ticket.checked_in"
    NotificationsDispatchedKey = "notifications.dispatched"
)

// TicketsImportedEvent is published after an import batch has been written
// to the ticket sheet.
type TicketsImportedEvent struct {
    EventID    string   `json:"event_id"`
    Count      int      `json:"count"`
    Rows       []int    `json:"rows"`
    Codes      []string `json:"codes"`
    ImportedAt string   `json:"imported_at"`
}

// TicketCheckedInEvent is published when a ticket holder is checked in at
// the door.  It carries enough identity for the audit log to be read
// without going back to the sheet.
type TicketCheckedInEvent struct {
    EventID     string `json:"event_id"`
    Code        string `json:"code"`
    Row         int    `json:"row"`
    Name        string `json:"name"`
    StudentID   string `json:"student_id"`
    Class       string `json:"class"`
    CheckedInAt string `json:"checked_in_at"`
}

// NotificationsDispatchedEvent summarises one ticket mail run.
type NotificationsDispatchedEvent struct {
    EventID    string `json:"event_id"`
    Attempted  int    `json:"attempted"`
    Sent       int    `json:"sent"`
    Failed     int    `json:"failed"`
    FinishedAt string `json:"finished_at"`
}
