package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/reschevie/reschevie-api/internal/session"
)

// RequireRole returns a guard that aborts the request unless the session
// carries one of the given roles.  It runs before any handler logic, so a
// rejected caller learns nothing about the resource they aimed at: the
// response is always the same generic Unauthorized message, whether the
// caller is anonymous, a regular user, or probing a nonexistent ID.
func RequireRole(roles ...session.Role) echo.MiddlewareFunc {
    allowed := make(map[session.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ident, ok := CurrentIdentity(c)
            if !ok || !allowed[ident.Role] {
                return c.JSON(http.StatusForbidden, echo.Map{
                    "success": false,
                    "message": "Unauthorized",
                })
            }
            return next(c)
        }
    }
}

// RequireAdmin guards the admin-only route group.
func RequireAdmin() echo.MiddlewareFunc {
    return RequireRole(session.RoleAdmin)
}
