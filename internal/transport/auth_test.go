package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	valid map[string]bool
	err   error
}

func (s *stubSessions) Create(context.Context, string, time.Time) error { return nil }
func (s *stubSessions) Revoke(context.Context, string) error            { return nil }
func (s *stubSessions) Validate(_ context.Context, tokenHash string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.valid[tokenHash], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHashToken(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, HashToken("abc"), 64)
}

func TestRequireSession(t *testing.T) {
	sessions := &stubSessions{valid: map[string]bool{HashToken("good-token"): true}}
	auth := NewAuth(sessions, "")
	handler := auth.RequireSession(okHandler())

	// No cookie.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bad-token"})
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Live session.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-token"})
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAllowSessionOrSecret(t *testing.T) {
	sessions := &stubSessions{valid: map[string]bool{HashToken("good-token"): true}}
	auth := NewAuth(sessions, "s3cret")
	handler := auth.AllowSessionOrSecret(okHandler())

	// Secret via header.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Import-Secret", "s3cret")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Secret via query parameter.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/?secret=s3cret", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Wrong secret.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Import-Secret", "nope")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Session works without the secret.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-token"})
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAllowSessionOrSecret_NoSecretConfigured(t *testing.T) {
	auth := NewAuth(&stubSessions{}, "")
	handler := auth.AllowSessionOrSecret(okHandler())

	// With no configured secret, an empty supplied secret must not match.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
