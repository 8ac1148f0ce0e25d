package handler_test

// Shared test harness: handlers are exercised through the real router with
// a sqlmock-backed database and a miniredis-backed session store, so every
// test goes through the same middleware chain as production requests.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reschevie/reschevie-api/internal/config"
	"github.com/reschevie/reschevie-api/internal/handler"
	"github.com/reschevie/reschevie-api/internal/repository"
	"github.com/reschevie/reschevie-api/internal/router"
	"github.com/reschevie/reschevie-api/internal/session"
)

type testEnv struct {
	e     *echo.Echo
	mock  sqlmock.Sqlmock
	store *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, time.Hour)

	cfg := config.Config{Env: "test", BcryptCost: bcrypt.MinCost}
	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	inquiries := repository.NewInquiryRepo(db)
	newsletters := repository.NewNewsletterRepo(db)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewAuthHandler(cfg, users, store),
		handler.NewInquiryHandler(products, inquiries),
		handler.NewNewsletterHandler(users, newsletters),
		store, rdb, config.RateLimitConfig{Enabled: false})

	return &testEnv{e: e, mock: mock, store: store}
}

// doJSON performs a request with a JSON body and optional session cookie.
func (env *testEnv) doJSON(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.e.ServeHTTP(w, req)
	return w
}

// doForm performs a form-encoded POST, the shape browsers use for login and
// registration.
func (env *testEnv) doForm(target, form string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.e.ServeHTTP(w, req)
	return w
}

// sessionCookie seeds a live session directly in the store and returns the
// cookie a client holding it would send.
func (env *testEnv) sessionCookie(t *testing.T, ident session.Identity) *http.Cookie {
	token, err := env.store.Create(context.Background(), ident)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func (env *testEnv) adminCookie(t *testing.T) *http.Cookie {
	return env.sessionCookie(t, session.Identity{
		ID: 1, Fname: "Rita", Lname: "Reyes", Email: "rita@reschevie.com", Role: session.RoleAdmin,
	})
}

func (env *testEnv) userCookie(t *testing.T, email string) *http.Cookie {
	return env.sessionCookie(t, session.Identity{
		ID: 42, Fname: "Ana", Lname: "Cruz", Email: email, Role: session.RoleUser,
	})
}

// hashFor returns a bcrypt hash usable as a stored credential in mock rows.
func hashFor(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}
