package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// TicketHandler serves the door and registration desk: scanning a code,
// checking its holder in and correcting the holder's details.
type TicketHandler struct {
    Checkin *service.CheckinService
    Updater *service.RegistrationUpdater
}

func NewTicketHandler(checkin *service.CheckinService, updater *service.RegistrationUpdater) *TicketHandler {
    if checkin == nil || updater == nil {
        panic("nil service passed to NewTicketHandler")
    }
    return &TicketHandler{Checkin: checkin, Updater: updater}
}

type codeRequest struct {
    Code string `json:"code"`
}

// ticketView is the JSON shape of a ticket returned to the door.
type ticketView struct {
    Name      string `json:"name"`
    StudentID string `json:"studentId"`
    Class     string `json:"class"`
    Email     string `json:"email"`
    Phone     string `json:"phone"`
    Status    string `json:"status"`
}

// checkinResponse is a ticketView with a short note for the door screen.
type checkinResponse struct {
    ticketView
    Message string `json:"message,omitempty"`
}

func viewOf(r model.TicketRow) ticketView {
    return ticketView{
        Name: r.Name, StudentID: r.StudentID, Class: r.Class,
        Email: r.Email, Phone: r.Phone, Status: string(r.CheckinStatus),
    }
}

// sheetRecord renders a row keyed by sheet header, the shape scanners
// already understand.
func sheetRecord(r model.TicketRow) map[string]string {
    return map[string]string{
        repository.HeaderCode:       r.Code,
        repository.HeaderName:       r.Name,
        repository.HeaderStudentID:  r.StudentID,
        repository.HeaderClass:      r.Class,
        repository.HeaderEmail:      r.Email,
        repository.HeaderPhone:      r.Phone,
        repository.HeaderImageLink:  r.ImageLink,
        repository.HeaderStatus:     string(r.CheckinStatus),
        repository.HeaderMailStatus: string(r.MailStatus),
        repository.HeaderPayment:    r.PaymentMethod,
    }
}

func bindCode(c echo.Context) (string, bool) {
    var body codeRequest
    if err := c.Bind(&body); err != nil {
        return "", false
    }
    code := strings.TrimSpace(body.Code)
    return code, code != ""
}

// Scan handles POST /v1/scan.  It looks a code up through the record cache,
// so a ticket allocated in the last minute may briefly be reported missing.
func (h *TicketHandler) Scan(c echo.Context) error {
    code, ok := bindCode(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid QR code"})
    }
    row, err := h.Checkin.Lookup(c.Request().Context(), code)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "found", "code": row.Code, "data": sheetRecord(row)})
}

// CheckIn handles POST /v1/checkin.  Checking in an already checked-in
// ticket succeeds again.
func (h *TicketHandler) CheckIn(c echo.Context) error {
    code, ok := bindCode(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid QR code"})
    }
    row, err := h.Checkin.Checkin(c.Request().Context(), code)
    if err != nil {
        return writeError(c, err)
    }
    log.Infof("checkin: %s row %d by %s", row.Code, row.Row, callerID(c))
    return c.JSON(http.StatusOK, checkinResponse{ticketView: viewOf(row), Message: "checked in"})
}

// Update handles PUT /v1/tickets/:code with the registration desk form.
func (h *TicketHandler) Update(c echo.Context) error {
    form := map[string]string{}
    params, err := c.FormParams()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
    }
    for k := range params {
        form[k] = params.Get(k)
    }
    upd, err := service.ParseRegistrationUpdate(form)
    if err != nil {
        return writeError(c, err)
    }
    row, err := h.Updater.Update(c.Request().Context(), c.Param("code"), upd)
    if err != nil {
        return writeError(c, err)
    }
    log.Infof("update: %s row %d by %s", row.Code, row.Row, callerID(c))
    return c.JSON(http.StatusOK, echo.Map{"message": "updated", "ticket": viewOf(row)})
}
