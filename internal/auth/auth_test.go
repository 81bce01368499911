package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-jwt-secret-key"
	testPassword = "correct horse"
)

func newTestHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return NewHandler(mock, testSecret, string(hash), false), mock
}

func postLogin(h *Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("longenough")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("longenough")) != nil {
		t.Error("hash does not match password")
	}

	for _, pw := range []string{"short", strings.Repeat("x", 73)} {
		if _, err := HashPassword(pw); !errors.Is(err, ErrPasswordLength) {
			t.Errorf("expected ErrPasswordLength for %d chars, got %v", len(pw), err)
		}
	}
}

func TestLogin_Success(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO admin_sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := postLogin(handler, url.Values{"password": {testPassword}, "next": {"/serial/1"}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/serial/1" {
		t.Errorf("expected redirect to /serial/1, got %q", loc)
	}
	cookie := findCookie(rec.Result().Cookies(), SessionCookie)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly session cookie")
	}
	if _, err := ValidateToken(testSecret, cookie.Value); err != nil {
		t.Errorf("session cookie does not validate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	rec := postLogin(handler, url.Values{"password": {"nope"}, "next": {"/misc"}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?error=1&next=%2Fmisc" {
		t.Errorf("unexpected redirect %q", loc)
	}
	if findCookie(rec.Result().Cookies(), SessionCookie) != nil {
		t.Error("expected no session cookie")
	}
}

func TestLogin_NoPasswordConfigured(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	handler := NewHandler(mock, testSecret, "", false)

	rec := postLogin(handler, url.Values{"password": {"anything"}})
	if !strings.HasPrefix(rec.Header().Get("Location"), "/login?error=1") {
		t.Errorf("expected login to be refused, got %q", rec.Header().Get("Location"))
	}
}

func TestLogin_OffsiteNextIsIgnored(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO admin_sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := postLogin(handler, url.Values{"password": {testPassword}, "next": {"//evil.example/"}})
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}
}

func sessionRequest(t *testing.T, method, path, tokenID string) *http.Request {
	t.Helper()
	token, err := GenerateSessionToken(testSecret, tokenID)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	return req
}

func TestMiddleware_ValidSession(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT revoked, expires_at FROM admin_sessions`).
		WithArgs("tok-1").
		WillReturnRows(pgxmock.NewRows([]string{"revoked", "expires_at"}).
			AddRow(false, time.Now().Add(time.Hour)))

	var gotSession string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler.Middleware(next).ServeHTTP(rec, sessionRequest(t, http.MethodGet, "/serial/0", "tok-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if gotSession != "tok-1" {
		t.Errorf("expected session %q in context, got %q", "tok-1", gotSession)
	}
}

func TestMiddleware_RevokedSession(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT revoked, expires_at FROM admin_sessions`).
		WithArgs("tok-1").
		WillReturnRows(pgxmock.NewRows([]string{"revoked", "expires_at"}).
			AddRow(true, time.Now().Add(time.Hour)))

	rec := httptest.NewRecorder()
	handler.Middleware(http.NotFoundHandler()).ServeHTTP(rec, sessionRequest(t, http.MethodGet, "/misc", "tok-1"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fmisc" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

func TestMiddleware_UnknownSession(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT revoked, expires_at FROM admin_sessions`).
		WithArgs("tok-9").
		WillReturnError(pgx.ErrNoRows)

	req := sessionRequest(t, http.MethodPost, "/config.cgi", "tok-9")
	req.Header.Set("Referer", "http://device.local/serial/1")
	rec := httptest.NewRecorder()
	handler.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fserial%2F1" {
		t.Errorf("expected redirect back to the form, got %q", loc)
	}
}

func TestMiddleware_NoCookie(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	rec := httptest.NewRecorder()
	handler.Middleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	handler, mock := newTestHandler(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE admin_sessions SET revoked`).
		WithArgs("tok-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rec := httptest.NewRecorder()
	handler.Logout(rec, sessionRequest(t, http.MethodPost, "/logout", "tok-1"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	cookie := findCookie(rec.Result().Cookies(), SessionCookie)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Error("expected session cookie to be cleared")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}
