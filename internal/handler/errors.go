package handler // handler defines the HTTP handlers of the ticket service

import (
    "net/http"

    "github.com/cockroachdb/errors"
    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// writeError maps a service error onto an HTTP status and JSON body.  Only
// unexpected failures are logged; the caller's own mistakes are not.
func writeError(c echo.Context, err error) error {
    status, msg := http.StatusInternalServerError, "internal error"
    switch {
    case errors.Is(err, service.ErrFormat):
        status, msg = http.StatusBadRequest, err.Error()
    case errors.Is(err, service.ErrNotFound):
        status, msg = http.StatusNotFound, "ticket not found"
    case errors.Is(err, service.ErrInsufficientCapacity):
        status, msg = http.StatusConflict, err.Error()
    case errors.Is(err, service.ErrDispatchInProgress):
        status, msg = http.StatusConflict, "a dispatch run is already in progress"
    case errors.Is(err, service.ErrRender):
        status, msg = http.StatusBadGateway, "ticket image could not be rendered, nothing was written"
    case errors.Is(err, service.ErrUpload):
        status, msg = http.StatusBadGateway, "ticket image upload failed, nothing was written"
    case errors.Is(err, service.ErrWrite):
        msg = "sheet write failed, the rows may or may not have been written; check the sheet before retrying"
    case errors.Is(err, repository.ErrNoSnapshot):
        status, msg = http.StatusServiceUnavailable, "ticket sheet unavailable"
    }
    if status >= http.StatusInternalServerError {
        log.Errorf("%s %s: %+v", c.Request().Method, c.Path(), err)
    }
    return c.JSON(status, echo.Map{"error": msg})
}

// callerID returns the JWT subject for log lines.
func callerID(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    return "unknown"
}
