package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/iliyamo/event-ticketing/internal/handler"
    "github.com/iliyamo/event-ticketing/internal/middleware"
)

// RegisterRoutes registers the routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterArtifacts serves locally stored ticket images under /artifacts
// when no bucket is configured.
func RegisterArtifacts(e *echo.Echo, dir string) {
    e.Static("/artifacts", dir)
}

// RegisterTickets registers the door and registration desk endpoints under
// /v1.  Both ADMIN and STAFF may use them.  Scans and check-ins are
// throttled per scanner by limiter.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff),
    )
    g.POST("/scan", h.Scan, limiter)
    g.POST("/checkin", h.CheckIn, limiter)
    g.PUT("/tickets/:code", h.Update)
}

// RegisterAdmin registers the organiser endpoints under /v1.  All routes
// require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(middleware.RoleAdmin),
    )
    g.POST("/tickets/import", h.Import)
    g.POST("/notifications/dispatch", h.Dispatch)
}
