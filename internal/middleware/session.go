package middleware // middleware provides shared request processing for handlers

import (
    "github.com/labstack/echo/v4"

    "github.com/reschevie/reschevie-api/internal/session"
)

// Context keys under which the resolved session is stored for handlers.
const (
    IdentityKey     = "identity"
    SessionTokenKey = "session_token"
)

// LoadSession returns middleware that resolves the session cookie, if any,
// into an Identity stored on the request context.  Anonymous requests and
// stale tokens pass through untouched; role enforcement is a separate guard
// so public endpoints can still observe who is logged in.
func LoadSession(store *session.Store) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ck, err := c.Cookie(session.CookieName)
            if err == nil && ck.Value != "" {
                if ident, err := store.Get(c.Request().Context(), ck.Value); err == nil {
                    c.Set(IdentityKey, ident)
                    c.Set(SessionTokenKey, ck.Value)
                }
            }
            return next(c)
        }
    }
}

// CurrentIdentity returns the authenticated identity for the request, if
// any.  The boolean is false for anonymous callers.
func CurrentIdentity(c echo.Context) (session.Identity, bool) {
    v := c.Get(IdentityKey)
    ident, ok := v.(session.Identity)
    return ident, ok
}
