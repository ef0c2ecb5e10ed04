package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rollmark/rollmark/internal/domain/attendance"
	"github.com/rollmark/rollmark/internal/source"
	"github.com/rollmark/rollmark/internal/sqlite"
	"github.com/rollmark/rollmark/internal/transport"
)

// Password accepted by the test server's login endpoint.
const Password = "test-password"

// Options configures the remote source the test server imports from.
type Options struct {
	AttendanceURL string
	RosterURL     string
	ImportSecret  string
}

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Service *attendance.Service
}

// New builds a full HTTP stack over an in-memory database.
func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	factRepo := sqlite.NewFactRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	svc := attendance.NewService(factRepo, source.NewClient(5*time.Second), nil, attendance.ServiceConfig{
		AttendanceURL: opts.AttendanceURL,
		RosterURL:     opts.RosterURL,
	}, nil)

	auth := transport.NewAuth(sessionRepo, opts.ImportSecret)
	router := transport.NewServer(svc, sessionRepo, auth, transport.ServerConfig{
		AdminPasswordHash: transport.HashToken(Password),
		SessionTTL:        time.Hour,
	}, nil)

	server := httptest.NewServer(router)

	ts := &TestServer{Server: server, DB: db, Service: svc}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// Login authenticates with the test password and returns the session cookie.
func (ts *TestServer) Login(t *testing.T) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"password": Password})
	resp, err := http.Post(ts.Server.URL+"/api/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == transport.SessionCookie {
			return c
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}
