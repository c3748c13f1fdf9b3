package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Roles carried in the JWT "role" claim.
const (
    RoleAdmin = "ADMIN" // organisers: imports and mail dispatch
    RoleStaff = "STAFF" // door and registration desk
)

// RequireRole returns a middleware that aborts with 403 Forbidden unless
// the role JWTAuth stored in the context is one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
