package transport

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"time"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "sa_token"

// SessionStore is the subset of session persistence the transport needs.
type SessionStore interface {
	Create(ctx context.Context, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (bool, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// HashToken returns the hex SHA-256 digest of a token. Only digests are
// stored server-side.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Auth gates handlers behind a session cookie, with an optional shared
// import secret for scripted triggers.
type Auth struct {
	sessions     SessionStore
	importSecret string
}

// NewAuth creates the auth middleware provider.
func NewAuth(sessions SessionStore, importSecret string) *Auth {
	return &Auth{sessions: sessions, importSecret: importSecret}
}

func (a *Auth) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	ok, err := a.sessions.Validate(r.Context(), HashToken(cookie.Value))
	return err == nil && ok
}

func (a *Auth) secretMatches(r *http.Request) bool {
	if a.importSecret == "" {
		return false
	}
	supplied := r.Header.Get("X-Import-Secret")
	if supplied == "" {
		supplied = r.URL.Query().Get("secret")
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(a.importSecret)) == 1
}

// RequireSession rejects requests without a valid session cookie.
func (a *Auth) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.authenticated(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauth"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AllowSessionOrSecret admits either a valid session or the configured
// import secret, supplied via the X-Import-Secret header or ?secret= query.
func (a *Auth) AllowSessionOrSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.authenticated(r) && !a.secretMatches(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauth"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
