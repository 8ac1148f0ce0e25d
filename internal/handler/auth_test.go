package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reschevie/reschevie-api/internal/session"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestLoginUserSuccess(t *testing.T) {
	env := newTestEnv(t)
	hash := hashFor(t, "Password1")

	env.mock.ExpectQuery("FROM users WHERE user_email").
		WithArgs("ana@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_fname", "user_lname", "user_email", "user_password"}).
			AddRow(42, "Ana", "Cruz", "ana@x.com", hash))

	w := env.doForm("/v1/auth/login", "email=Ana%40X.com&password=Password1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, "Ana", body["fname"])

	ck := responseCookie(w, session.CookieName)
	require.NotNil(t, ck, "login must set a session cookie")
	assert.Len(t, ck.Value, 64)
	assert.True(t, ck.HttpOnly)

	ident, err := env.store.Get(context.Background(), ck.Value)
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, ident.Role)
	assert.Equal(t, uint64(42), ident.ID)

	// The admins table is never consulted when the users table matches.
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLoginAdminFallback(t *testing.T) {
	env := newTestEnv(t)
	hash := hashFor(t, "Secret9A")

	env.mock.ExpectQuery("FROM users WHERE user_email").
		WithArgs("rita@reschevie.com").
		WillReturnError(sql.ErrNoRows)
	env.mock.ExpectQuery("FROM admins WHERE admin_email").
		WithArgs("rita@reschevie.com").
		WillReturnRows(sqlmock.NewRows([]string{"admin_id", "admin_fname", "admin_lname", "admin_email", "admin_password"}).
			AddRow(1, "Rita", nil, "rita@reschevie.com", hash))

	w := env.doForm("/v1/auth/login", "email=rita%40reschevie.com&password=Secret9A", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "admin", body["role"])

	ck := responseCookie(w, session.CookieName)
	require.NotNil(t, ck)
	ident, err := env.store.Get(context.Background(), ck.Value)
	require.NoError(t, err)
	assert.True(t, ident.IsAdmin())
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	hash := hashFor(t, "RealPass1")

	env.mock.ExpectQuery("FROM users WHERE user_email").
		WithArgs("ana@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_fname", "user_lname", "user_email", "user_password"}).
			AddRow(42, "Ana", "Cruz", "ana@x.com", hash))
	// A failed user match falls through to the admins table.
	env.mock.ExpectQuery("FROM admins WHERE admin_email").
		WithArgs("ana@x.com").
		WillReturnError(sql.ErrNoRows)

	w := env.doForm("/v1/auth/login", "email=ana%40x.com&password=WrongPass1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, w)["message"])
	assert.Nil(t, responseCookie(w, session.CookieName))
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("FROM users WHERE user_email").
		WillReturnError(sql.ErrNoRows)
	env.mock.ExpectQuery("FROM admins WHERE admin_email").
		WillReturnError(sql.ErrNoRows)

	w := env.doForm("/v1/auth/login", "email=ghost%40x.com&password=Password1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.doForm("/v1/auth/login", "email=&password=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", decodeBody(t, w)["message"])

	w = env.doForm("/v1/auth/login", "email=not-an-email&password=Password1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", decodeBody(t, w)["message"])

	// Validation rejects before any query runs.
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLoginRegeneratesSession(t *testing.T) {
	env := newTestEnv(t)
	hash := hashFor(t, "Password1")

	old := env.userCookie(t, "ana@x.com")

	env.mock.ExpectQuery("FROM users WHERE user_email").
		WithArgs("ana@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_fname", "user_lname", "user_email", "user_password"}).
			AddRow(42, "Ana", "Cruz", "ana@x.com", hash))

	w := env.doForm("/v1/auth/login", "email=ana%40x.com&password=Password1", old)
	require.Equal(t, http.StatusOK, w.Code)

	fresh := responseCookie(w, session.CookieName)
	require.NotNil(t, fresh)
	assert.NotEqual(t, old.Value, fresh.Value)

	// The pre-login token is gone; only the new one resolves.
	_, err := env.store.Get(context.Background(), old.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = env.store.Get(context.Background(), fresh.Value)
	assert.NoError(t, err)
}

func TestRegisterSuccess(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("SELECT user_id FROM users WHERE user_email").
		WithArgs("new@x.com", "newbie").
		WillReturnError(sql.ErrNoRows)
	env.mock.ExpectExec("INSERT INTO users").
		WithArgs("newbie", sqlmock.AnyArg(), "new@x.com", "Nina", "Belle", "555-0101").
		WillReturnResult(sqlmock.NewResult(10, 1))

	form := "username=newbie&email=New%40X.com&password=Password1&fname=Nina&lname=Belle&contact=555-0101"
	w := env.doForm("/v1/auth/register", form, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Registration successful", body["message"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRegisterValidationMessages(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		form string
		msg  string
	}{
		{"missing fields", "username=&email=&password=&fname=&lname=", "All required fields must be filled"},
		{"bad email", "username=newbie&email=bad&password=Password1&fname=N&lname=B", "Invalid email format"},
		{"short username", "username=ab&email=n%40x.com&password=Password1&fname=N&lname=B", "Username must be 3-50 characters"},
		{"bad username chars", "username=new%20bie&email=n%40x.com&password=Password1&fname=N&lname=B", "Username may only contain letters, numbers, dots, hyphens, and underscores"},
		{"weak password", "username=newbie&email=n%40x.com&password=password&fname=N&lname=B", "Password must be at least 8 characters and include one uppercase letter and one number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.doForm("/v1/auth/register", tc.form, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.msg, decodeBody(t, w)["message"])
		})
	}

	// No query ran for any of them.
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("SELECT user_id FROM users WHERE user_email").
		WithArgs("ana@x.com", "ana").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(42))

	form := "username=ana&email=ana%40x.com&password=Password1&fname=Ana&lname=Cruz"
	w := env.doForm("/v1/auth/register", form, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email or username is already taken", decodeBody(t, w)["message"])
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	ck := env.userCookie(t, "ana@x.com")

	w := env.doJSON(http.MethodPost, "/v1/auth/logout", "", ck)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := env.store.Get(context.Background(), ck.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)

	cleared := responseCookie(w, session.CookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(http.MethodPost, "/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
}
