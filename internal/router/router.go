package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/reschevie/reschevie-api/internal/config"
    "github.com/reschevie/reschevie-api/internal/handler"
    "github.com/reschevie/reschevie-api/internal/middleware"
    "github.com/reschevie/reschevie-api/internal/session"
)

// RegisterRoutes registers routes that need no dependencies.  Currently it
// exposes only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the storefront API.  The session loader runs on every
// route so public endpoints can attribute work to a logged-in user; the
// admin group adds the role guard on top.  Credential and submission
// endpoints sit behind the rate limiter since they are the abuse targets.
func RegisterAPI(e *echo.Echo, auth *handler.AuthHandler, inq *handler.InquiryHandler, news *handler.NewsletterHandler, store *session.Store, rdb *redis.Client, rlCfg config.RateLimitConfig) {
    e.Use(middleware.LoadSession(store))
    limited := middleware.RateLimit(rlCfg, rdb)

    a := e.Group("/v1/auth")
    a.POST("/login", auth.Login, limited)
    a.POST("/register", auth.Register, limited)
    a.POST("/logout", auth.Logout)

    // Inquiry submission is open to guests; the session, when present,
    // attributes the inquiry to the user.
    e.POST("/v1/inquiries", inq.Submit, limited)

    // Newsletter subscribe is public (registered emails only, enforced in
    // the handler); unsubscribe authorizes owner-or-admin itself since the
    // owner is not an admin.
    e.POST("/v1/newsletter", news.Subscribe, limited)
    e.DELETE("/v1/newsletter", news.Unsubscribe)

    admin := e.Group("/v1/admin", middleware.RequireAdmin())
    admin.GET("/inquiries", inq.List)
    admin.PUT("/inquiries", inq.UpdateStatus)
    admin.DELETE("/inquiries", inq.Delete)
    admin.GET("/newsletter", news.List)
}
