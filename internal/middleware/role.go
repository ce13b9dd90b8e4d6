package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns middleware that enforces that the authenticated
// user carries one of the given roles.  The values compared are the
// ones JWTAuth stored in the context under "role"; a missing or
// unknown role is rejected with 403.
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
