package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health reports liveness only.  It never touches the sheet, so a slow or
// unreachable sheet does not get the process restarted.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
