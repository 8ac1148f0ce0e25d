package handler

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/reschevie/reschevie-api/internal/middleware"
    "github.com/reschevie/reschevie-api/internal/repository"
    "github.com/reschevie/reschevie-api/internal/utils"
)

// NewsletterHandler implements newsletter subscription management.  The
// newsletters table keys on email and carries a foreign dependency on the
// users table, so only registered emails can subscribe.
type NewsletterHandler struct {
    Users       *repository.UserRepo
    Newsletters *repository.NewsletterRepo
}

func NewNewsletterHandler(users *repository.UserRepo, newsletters *repository.NewsletterRepo) *NewsletterHandler {
    if users == nil || newsletters == nil {
        panic("nil repository passed to NewNewsletterHandler")
    }
    return &NewsletterHandler{Users: users, Newsletters: newsletters}
}

type subscribeReq struct {
    Email string `json:"email"`
}

// Subscribe handles POST /v1/newsletter.  A first-time subscribe inserts a
// row; re-subscribing after an unsubscribe reactivates the same row; an
// already-active subscription is a conflict.
func (h *NewsletterHandler) Subscribe(c echo.Context) error {
    var req subscribeReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Invalid JSON body")
    }
    email := utils.NormalizeEmail(req.Email)
    if email == "" {
        return fail(c, http.StatusBadRequest, "Email is required")
    }
    if !utils.ValidEmail(email) {
        return fail(c, http.StatusBadRequest, "Invalid email format")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    registered, err := h.Users.UserEmailExists(ctx, email)
    if err != nil {
        log.Printf("newsletter: user lookup failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to subscribe. Please try again.")
    }
    if !registered {
        return fail(c, http.StatusBadRequest, "This email is not associated with a registered account")
    }

    sub, err := h.Newsletters.GetByEmail(ctx, email)
    switch {
    case err == sql.ErrNoRows:
        // First-time subscriber.  A concurrent insert loses the race at the
        // unique key and surfaces as ErrAlreadySubscribed.
        if err := h.Newsletters.Insert(ctx, email); err != nil {
            if err == repository.ErrAlreadySubscribed {
                return fail(c, http.StatusConflict, "This email is already subscribed")
            }
            log.Printf("newsletter: insert failed: %v", err)
            return fail(c, http.StatusInternalServerError, "Failed to subscribe. Please try again.")
        }
        return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Successfully subscribed"})
    case err != nil:
        log.Printf("newsletter: lookup failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to subscribe. Please try again.")
    case sub.IsActive:
        return fail(c, http.StatusConflict, "This email is already subscribed")
    default:
        // Previously unsubscribed; same row comes back to life.
        if err := h.Newsletters.Reactivate(ctx, email); err != nil {
            log.Printf("newsletter: reactivate failed: %v", err)
            return fail(c, http.StatusInternalServerError, "Failed to subscribe. Please try again.")
        }
        return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Successfully re-subscribed"})
    }
}

// List handles GET /v1/admin/newsletter.  Active subscribers by default;
// ?all=1 includes soft-deleted rows.  The response is a bare array,
// newest-subscribed first, with the owner's name joined in.
func (h *NewsletterHandler) List(c echo.Context) error {
    includeInactive := c.QueryParam("all") == "1"

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    subs, err := h.Newsletters.List(ctx, includeInactive)
    if err != nil {
        log.Printf("newsletter: list failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to load subscribers")
    }
    return c.JSON(http.StatusOK, subs)
}

// Unsubscribe handles DELETE /v1/newsletter?email=.  Only the email's own
// authenticated owner or an admin may unsubscribe it.  The row is soft
// deleted; unsubscribing an already-inactive email is reported as a no-op
// failure rather than silent success.
func (h *NewsletterHandler) Unsubscribe(c echo.Context) error {
    email := utils.NormalizeEmail(c.QueryParam("email"))
    if email == "" {
        return fail(c, http.StatusBadRequest, "Email is required")
    }
    if !utils.ValidEmail(email) {
        return fail(c, http.StatusBadRequest, "Invalid email format")
    }

    ident, authed := middleware.CurrentIdentity(c)
    isOwner := authed && utils.NormalizeEmail(ident.Email) == email
    if !authed || (!ident.IsAdmin() && !isOwner) {
        return fail(c, http.StatusForbidden, "Unauthorized")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    sub, err := h.Newsletters.GetByEmail(ctx, email)
    if err == sql.ErrNoRows {
        return fail(c, http.StatusNotFound, "Email not found in subscribers")
    }
    if err != nil {
        log.Printf("newsletter: lookup failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to unsubscribe. Please try again.")
    }
    if !sub.IsActive {
        return fail(c, http.StatusConflict, "Email is already unsubscribed")
    }
    if err := h.Newsletters.Deactivate(ctx, email); err != nil {
        log.Printf("newsletter: deactivate failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to unsubscribe. Please try again.")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Successfully unsubscribed"})
}
