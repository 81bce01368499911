package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/s2eweb/s2eweb/internal/database"
)

const (
	SessionCookie = "s2e_session"

	MinPasswordLength = 8
	// bcrypt ignores anything past 72 bytes.
	MaxPasswordLength = 72
)

var ErrPasswordLength = errors.New("password must be between 8 and 72 characters")

type contextKey string

const sessionIDKey contextKey = "sessionID"

// Handler guards the configuration forms with a single administrator
// password. Sessions are signed cookies backed by the admin_sessions table so
// that logging out revokes them.
type Handler struct {
	db            database.DBTX
	jwtSecret     string
	passwordHash  []byte
	secureCookies bool
}

func NewHandler(db database.DBTX, jwtSecret, passwordHash string, secureCookies bool) *Handler {
	return &Handler{db: db, jwtSecret: jwtSecret, passwordHash: []byte(passwordHash), secureCookies: secureCookies}
}

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return "", ErrPasswordLength
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Login checks the posted password and redirects to the "next" field, or back
// to the login page with error=1.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.PostFormValue("next"))
	password := r.PostFormValue("password")

	if len(h.passwordHash) == 0 || password == "" ||
		bcrypt.CompareHashAndPassword(h.passwordHash, []byte(password)) != nil {
		slog.Warn("auth: failed login", "remote_addr", r.RemoteAddr)
		http.Redirect(w, r, "/login?error=1&next="+url.QueryEscape(next), http.StatusSeeOther)
		return
	}

	token, err := h.issueSession(r.Context())
	if err != nil {
		slog.Error("auth: failed to issue session", "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token, int(SessionDuration/time.Second))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if claims, err := ValidateToken(h.jwtSecret, cookie.Value); err == nil {
			if err := h.revokeSession(r.Context(), claims.TokenID); err != nil {
				slog.Error("auth: failed to revoke session", "error", err)
			}
		}
	}
	h.setSessionCookie(w, "", -1)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Middleware sends requests without a live session to the login page.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.authenticate(r)
		if !ok {
			target := r.URL.Path
			if r.Method != http.MethodGet {
				target = r.Referer()
			}
			http.Redirect(w, r, "/login?next="+url.QueryEscape(safeNext(target)), http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticated reports whether r carries a live session, for pages that
// render differently when logged in.
func (h *Handler) Authenticated(r *http.Request) bool {
	_, ok := h.authenticate(r)
	return ok
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

func (h *Handler) authenticate(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	claims, err := ValidateToken(h.jwtSecret, cookie.Value)
	if err != nil {
		return "", false
	}
	if err := h.validateStoredSession(r.Context(), claims.TokenID); err != nil {
		slog.Debug("auth: session rejected", "error", err)
		return "", false
	}
	return claims.TokenID, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

func (h *Handler) issueSession(ctx context.Context) (string, error) {
	tokenID, err := newTokenID()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(SessionDuration)
	if _, err := h.db.Exec(ctx, "INSERT INTO admin_sessions (token_id, expires_at, revoked) VALUES ($1, $2, false)", tokenID, expiresAt); err != nil {
		return "", err
	}

	return GenerateSessionToken(h.jwtSecret, tokenID)
}

func (h *Handler) validateStoredSession(ctx context.Context, tokenID string) error {
	var revoked bool
	var expiresAt time.Time
	err := h.db.QueryRow(ctx, "SELECT revoked, expires_at FROM admin_sessions WHERE token_id = $1", tokenID).Scan(&revoked, &expiresAt)
	if err != nil {
		return err
	}
	if revoked || time.Now().After(expiresAt) {
		return errors.New("session revoked or expired")
	}
	return nil
}

func (h *Handler) revokeSession(ctx context.Context, tokenID string) error {
	_, err := h.db.Exec(ctx, "UPDATE admin_sessions SET revoked = true, revoked_at = now() WHERE token_id = $1", tokenID)
	return err
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	if u, err := url.Parse(next); err == nil && (u.Host != "" || u.Scheme != "") {
		next = u.RequestURI()
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func newTokenID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
