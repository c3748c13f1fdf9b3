package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// maxImportBytes caps the import upload.  A few thousand registrants fit
// comfortably.
const maxImportBytes = 4 << 20

// AdminHandler serves the organiser operations: importing registrants and
// mailing tickets.
type AdminHandler struct {
    Pipeline   *service.AllocationPipeline
    Dispatcher *service.NotificationDispatcher
}

func NewAdminHandler(p *service.AllocationPipeline, d *service.NotificationDispatcher) *AdminHandler {
    if p == nil || d == nil {
        panic("nil service passed to NewAdminHandler")
    }
    return &AdminHandler{Pipeline: p, Dispatcher: d}
}

// Import handles POST /v1/tickets/import.  The multipart field "file" holds
// the CSV batch; it is parsed in full before any slot is touched.
func (h *AdminHandler) Import(c echo.Context) error {
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
    }
    if fh.Size > maxImportBytes {
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "import file too large"})
    }
    f, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
    }
    defer f.Close()

    records, err := service.ParseImport(f)
    if err != nil {
        return writeError(c, err)
    }
    n, err := h.Pipeline.ImportBatch(c.Request().Context(), records)
    if err != nil {
        return writeError(c, err)
    }
    log.Infof("import: %s imported %d registrants from %s", callerID(c), n, fh.Filename)
    return c.JSON(http.StatusOK, echo.Map{"written": n})
}

// Dispatch handles POST /v1/notifications/dispatch.  It runs in the request
// and reports the counts when every eligible row has been tried.
func (h *AdminHandler) Dispatch(c echo.Context) error {
    res, err := h.Dispatcher.Run(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}
