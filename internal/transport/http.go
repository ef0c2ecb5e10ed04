package transport

import (
	"context"
	"crypto/subtle"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rollmark/rollmark/internal/domain/attendance"
)

// ImportService is the engine surface the transport exposes.
type ImportService interface {
	RunImportOnce(ctx context.Context) (attendance.RunOutcome, error)
	ApplyManualEdit(ctx context.Context, req attendance.EditRequest) (attendance.MergeOutcome, error)
	UploadRows(ctx context.Context, rows []attendance.UploadRow) (int, error)
	ListFacts(ctx context.Context) ([]attendance.Fact, error)
	LastRun() attendance.RunStatus
}

// ServerConfig carries the transport's own settings.
type ServerConfig struct {
	AdminPasswordHash string // hex SHA-256 of the admin password
	SessionTTL        time.Duration
	MetricsHandler    http.Handler // optional, mounted on /metrics
}

// Server wires HTTP handlers around the import engine.
type Server struct {
	imports  ImportService
	sessions SessionStore
	cfg      ServerConfig
	logger   *slog.Logger
}

// NewServer creates the HTTP router with middleware.
func NewServer(imports ImportService, sessions SessionStore, auth *Auth, cfg ServerConfig, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}

	srv := &Server{imports: imports, sessions: sessions, cfg: cfg, logger: logger}

	r := chi.NewRouter()

	r.Get("/health", srv.handleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Post("/api/login", srv.handleLogin)
	r.Post("/api/logout", srv.handleLogout)
	r.Get("/api/import/status", srv.handleImportStatus)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.AllowSessionOrSecret)
		pr.Post("/api/import", srv.handleImport)
		pr.Get("/api/import", srv.handleImport)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSession)
		pr.Get("/api/attendance", srv.handleAttendance)
		pr.Post("/api/attendance/edit", srv.handleEdit)
		pr.Post("/api/attendance/upload", srv.handleUpload)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminPasswordHash == "" {
		writeJSON(w, http.StatusInternalServerError,
			map[string]any{"message": "server misconfiguration: admin password not set"})
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid JSON"})
		return
	}

	supplied := HashToken(body.Password)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.cfg.AdminPasswordHash)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauth"})
		return
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.cfg.SessionTTL)
	if err := s.sessions.Create(r.Context(), HashToken(token), expires); err != nil {
		s.logger.Error("failed to create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := s.sessions.Revoke(r.Context(), HashToken(cookie.Value)); err != nil {
			s.logger.Warn("failed to revoke session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.imports.RunImportOnce(r.Context())
	if err != nil {
		s.logger.Warn("import trigger failed", "error", err)
		writeJSON(w, http.StatusInternalServerError,
			map[string]any{"message": "Import failed", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"imported": outcome.Imported,
		"absents":  outcome.Absents,
		"at":       outcome.CompletedAt,
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "last": s.imports.LastRun()})
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	facts, err := s.imports.ListFacts(r.Context())
	if err != nil {
		s.logger.Error("failed to list facts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to load attendance"})
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, facts)
		return
	}
	if facts == nil {
		facts = []attendance.Fact{}
	}
	writeJSON(w, http.StatusOK, facts)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Period string `json:"period"`
		Status string `json:"status"`
		Time   string `json:"time"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid JSON"})
		return
	}

	outcome, err := s.imports.ApplyManualEdit(r.Context(), attendance.EditRequest{
		PersonID: body.ID,
		Date:     body.Date,
		Period:   body.Period,
		Status:   body.Status,
		Time:     body.Time,
		Name:     body.Name,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidEdit) || errors.Is(err, attendance.ErrInvalidDate) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		s.logger.Error("manual edit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to update"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": outcome})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rows []attendance.UploadRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid JSON"})
		return
	}

	appended, err := s.imports.UploadRows(r.Context(), body.Rows)
	if err != nil {
		if errors.Is(err, attendance.ErrNoValidRows) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		s.logger.Error("upload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to persist attendance"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "appended": appended})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, facts []attendance.Fact) {
	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "id", "date", "period", "status"})
	for _, f := range facts {
		period := ""
		if f.Period != nil {
			period = *f.Period
		}
		_ = cw.Write([]string{f.PersonName, f.PersonID, f.Date, period, f.Status})
	}
	cw.Flush()
}
