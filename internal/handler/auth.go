package handler

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/reschevie/reschevie-api/internal/config"
    "github.com/reschevie/reschevie-api/internal/middleware"
    "github.com/reschevie/reschevie-api/internal/repository"
    "github.com/reschevie/reschevie-api/internal/session"
    "github.com/reschevie/reschevie-api/internal/utils"
)

// AuthHandler bundles dependencies for login, registration and logout.
type AuthHandler struct {
    Cfg      config.Config
    Users    *repository.UserRepo
    Sessions *session.Store
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *session.Store) *AuthHandler {
    if u == nil || s == nil {
        panic("nil dependency passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----
// Login and registration accept both form-encoded and JSON bodies.

type loginReq struct {
    Email    string `form:"email" json:"email"`
    Password string `form:"password" json:"password"`
}

type registerReq struct {
    Username string `form:"username" json:"username"`
    Email    string `form:"email" json:"email"`
    Password string `form:"password" json:"password"`
    Fname    string `form:"fname" json:"fname"`
    Lname    string `form:"lname" json:"lname"`
    Contact  string `form:"contact" json:"contact"`
}

// fail is the uniform error body: {"success":false,"message":...}.
func fail(c echo.Context, code int, msg string) error {
    return c.JSON(code, echo.Map{"success": false, "message": msg})
}

// Login verifies credentials and establishes a server-side session.  The
// users table is checked before the admins table; the first match wins, so
// an email present in both always authenticates as a regular user.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Invalid request body")
    }
    req.Email = utils.NormalizeEmail(req.Email)
    if req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "Email and password are required")
    }
    if !utils.ValidEmail(req.Email) {
        return fail(c, http.StatusBadRequest, "Invalid email format")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // Users first.
    u, err := h.Users.GetUserByEmail(ctx, req.Email)
    if err != nil && err != sql.ErrNoRows {
        return fail(c, http.StatusInternalServerError, "Login failed. Please try again.")
    }
    if err == nil && utils.VerifyPassword(u.PasswordHash, req.Password) {
        ident := session.Identity{ID: u.ID, Fname: u.Fname, Lname: u.Lname, Email: u.Email, Role: session.RoleUser}
        if err := h.establishSession(c, ident); err != nil {
            log.Printf("auth: create session failed: %v", err)
            return fail(c, http.StatusInternalServerError, "Login failed. Please try again.")
        }
        return c.JSON(http.StatusOK, echo.Map{"success": true, "role": session.RoleUser, "fname": u.Fname})
    }

    // Then admins.
    a, err := h.Users.GetAdminByEmail(ctx, req.Email)
    if err != nil && err != sql.ErrNoRows {
        return fail(c, http.StatusInternalServerError, "Login failed. Please try again.")
    }
    if err == nil && utils.VerifyPassword(a.PasswordHash, req.Password) {
        ident := session.Identity{ID: a.ID, Fname: a.Fname, Lname: a.Lname, Email: a.Email, Role: session.RoleAdmin}
        if err := h.establishSession(c, ident); err != nil {
            log.Printf("auth: create session failed: %v", err)
            return fail(c, http.StatusInternalServerError, "Login failed. Please try again.")
        }
        return c.JSON(http.StatusOK, echo.Map{"success": true, "role": session.RoleAdmin, "fname": a.Fname})
    }

    return fail(c, http.StatusUnauthorized, "Invalid credentials")
}

// establishSession discards any token the client presented, then issues a
// fresh one.  Promoting a pre-auth token would allow session fixation.
func (h *AuthHandler) establishSession(c echo.Context, ident session.Identity) error {
    ctx := c.Request().Context()
    if ck, err := c.Cookie(session.CookieName); err == nil && ck.Value != "" {
        _ = h.Sessions.Destroy(ctx, ck.Value)
    }
    token, err := h.Sessions.Create(ctx, ident)
    if err != nil {
        return err
    }
    c.SetCookie(&http.Cookie{
        Name:     session.CookieName,
        Value:    token,
        Path:     "/",
        MaxAge:   int(h.Sessions.TTL() / time.Second),
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
    return nil
}

// Register creates a new user account.  Validation fails fast with a
// specific message before any query executes.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Invalid request body")
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = utils.NormalizeEmail(req.Email)
    req.Fname = strings.TrimSpace(req.Fname)
    req.Lname = strings.TrimSpace(req.Lname)
    req.Contact = strings.TrimSpace(req.Contact)

    if req.Username == "" || req.Email == "" || req.Password == "" || req.Fname == "" || req.Lname == "" {
        return fail(c, http.StatusBadRequest, "All required fields must be filled")
    }
    if !utils.ValidEmail(req.Email) {
        return fail(c, http.StatusBadRequest, "Invalid email format")
    }
    if !utils.ValidUsernameLength(req.Username) {
        return fail(c, http.StatusBadRequest, "Username must be 3-50 characters")
    }
    if !utils.ValidUsernameCharset(req.Username) {
        return fail(c, http.StatusBadRequest, "Username may only contain letters, numbers, dots, hyphens, and underscores")
    }
    if !utils.StrongPassword(req.Password) {
        return fail(c, http.StatusBadRequest, "Password must be at least 8 characters and include one uppercase letter and one number")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    _, err := h.Users.Create(ctx, req.Username, req.Password, req.Email, req.Fname, req.Lname, req.Contact, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailTaken {
            return fail(c, http.StatusConflict, "Email or username is already taken")
        }
        log.Printf("auth: registration insert failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Registration failed. Please try again.")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Registration successful"})
}

// Logout destroys the server-side session and expires the cookie with a
// backdated Expires so the browser drops it immediately.  Logging out while
// not logged in still succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
    if token, ok := c.Get(middleware.SessionTokenKey).(string); ok && token != "" {
        _ = h.Sessions.Destroy(c.Request().Context(), token)
    } else if ck, err := c.Cookie(session.CookieName); err == nil && ck.Value != "" {
        _ = h.Sessions.Destroy(c.Request().Context(), ck.Value)
    }
    c.SetCookie(&http.Cookie{
        Name:     session.CookieName,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        Expires:  time.Now().Add(-time.Hour),
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}
