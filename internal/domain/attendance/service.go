package attendance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ServiceConfig carries the remote source endpoints for the import pipeline.
type ServiceConfig struct {
	AttendanceURL string
	RosterURL     string
	SourceLabel   string
}

// Service runs the fetch -> normalize -> group -> derive -> merge pipeline
// and owns the last-run slot. Pipeline runs are serialized: concurrent
// callers wait, two runs never interleave.
type Service struct {
	facts   FactRepository
	fetcher Fetcher
	metrics Metrics
	logger  *slog.Logger

	attendanceURL string
	rosterURL     string
	sourceLabel   string

	runMu    sync.Mutex
	statusMu sync.RWMutex
	status   RunStatus
}

// NewService creates the import service.
func NewService(facts FactRepository, fetcher Fetcher, metrics Metrics, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	label := cfg.SourceLabel
	if label == "" {
		label = "remote"
	}
	return &Service{
		facts:         facts,
		fetcher:       fetcher,
		metrics:       metrics,
		logger:        logger,
		attendanceURL: cfg.AttendanceURL,
		rosterURL:     cfg.RosterURL,
		sourceLabel:   label,
	}
}

// RunImportOnce executes one pipeline pass synchronously and returns counts.
// On failure the store is untouched by that run's unfetched source and a
// failure marker is recorded; the previous successful outcome is preserved.
func (s *Service) RunImportOnce(ctx context.Context) (RunOutcome, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.setRunning(true)
	defer s.setRunning(false)

	start := time.Now()
	outcome, err := s.runPipeline(ctx)
	if err != nil {
		s.recordFailure(err)
		if s.metrics != nil {
			s.metrics.ObserveRun("failure", 0, 0, time.Since(start).Seconds())
		}
		return RunOutcome{}, err
	}

	s.recordSuccess(outcome)
	if s.metrics != nil {
		s.metrics.ObserveRun("success", outcome.Imported, outcome.Absents, time.Since(start).Seconds())
	}
	s.logger.Info("import run completed",
		"imported", outcome.Imported, "absents", outcome.Absents, "source", outcome.Source)
	return outcome, nil
}

func (s *Service) runPipeline(ctx context.Context) (RunOutcome, error) {
	if s.attendanceURL == "" {
		return RunOutcome{}, ErrNoSourceConfigured
	}

	raw, err := s.fetcher.FetchJSON(ctx, s.attendanceURL)
	if err != nil {
		return RunOutcome{}, fmt.Errorf("fetching attendance: %w", err)
	}
	payload, err := DecodePayload(raw)
	if err != nil {
		return RunOutcome{}, err
	}

	rosterRows := payload.Roster
	if s.rosterURL != "" {
		rawRoster, err := s.fetcher.FetchJSON(ctx, s.rosterURL)
		if err != nil {
			return RunOutcome{}, fmt.Errorf("fetching roster: %w", err)
		}
		if rosterRows, err = DecodeRoster(rawRoster); err != nil {
			return RunOutcome{}, err
		}
	}

	observations := make([]Observation, 0, len(payload.Records))
	for _, rec := range payload.Records {
		if obs, ok := Normalize(rec); ok {
			observations = append(observations, obs)
		}
	}

	roster := NormalizeRoster(rosterRows)
	roster.Extend(observations)

	var imported, absents int
	for _, group := range GroupObservations(observations) {
		for _, obs := range group.Selected {
			if s.mergeObservation(ctx, obs, roster) {
				imported++
			}
		}
		// Absentee derivation observes the group's final selected map.
		for _, obs := range group.Absentees(roster) {
			if s.mergeObservation(ctx, obs, roster) {
				absents++
			}
		}
	}

	return RunOutcome{
		Imported:    imported,
		Absents:     absents,
		CompletedAt: time.Now().UTC(),
		Source:      s.sourceLabel,
	}, nil
}

// mergeObservation applies one automated merge. A store error on a single
// key is logged and skipped; it does not abort the remaining merges.
func (s *Service) mergeObservation(ctx context.Context, obs Observation, roster Roster) bool {
	name := strings.TrimSpace(obs.PersonName)
	if name == "" {
		name = strings.TrimSpace(roster[obs.PersonID])
	}
	key := Key{PersonID: obs.PersonID, Date: obs.Date, Period: obs.Period}
	cand := Candidate{Status: obs.Status, Time: obs.Time, PersonName: name}
	if _, err := s.facts.Merge(ctx, key, cand, false); err != nil {
		s.logger.Warn("merge failed",
			"person", obs.PersonID, "date", obs.Date, "error", err)
		return false
	}
	return true
}

// EditRequest is an explicit human correction for one fact key.
type EditRequest struct {
	PersonID string
	Date     string
	Period   string // "" means no period subdivision
	Status   string
	Time     string
	Name     string
}

// ApplyManualEdit merges a human correction, setting the protection flag so
// later automated imports cannot overwrite it.
func (s *Service) ApplyManualEdit(ctx context.Context, req EditRequest) (MergeOutcome, error) {
	id := strings.TrimSpace(req.PersonID)
	date := strings.TrimSpace(req.Date)
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if id == "" || date == "" || status == "" {
		return "", ErrInvalidEdit
	}
	if !dateFormat.MatchString(date) {
		return "", ErrInvalidDate
	}

	key := Key{PersonID: id, Date: date}
	if p := strings.TrimSpace(req.Period); p != "" {
		key.Period = &p
	}
	cand := Candidate{
		Status:     status,
		Time:       strings.TrimSpace(req.Time),
		PersonName: strings.TrimSpace(req.Name),
	}

	out, err := s.facts.Merge(ctx, key, cand, true)
	if err != nil {
		return "", fmt.Errorf("applying manual edit: %w", err)
	}
	return out, nil
}

// UploadRow is one manually supplied attendance row from a bulk upload.
type UploadRow struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// UploadRows validates and merges bulk rows as automated candidates, so they
// do not acquire manual-edit protection. Invalid rows are dropped. Returns
// the number of rows accepted.
func (s *Service) UploadRows(ctx context.Context, rows []UploadRow) (int, error) {
	accepted := 0
	for _, row := range rows {
		id := strings.TrimSpace(row.ID)
		name := strings.TrimSpace(row.Name)
		date := strings.TrimSpace(row.Date)
		if id == "" || name == "" || !dateFormat.MatchString(date) {
			continue
		}
		status := strings.ToLower(strings.TrimSpace(row.Status))
		switch status {
		case StatusPresent, StatusAbsent, StatusLate:
		default:
			status = StatusPresent
		}

		key := Key{PersonID: id, Date: date}
		cand := Candidate{Status: status, PersonName: name}
		if _, err := s.facts.Merge(ctx, key, cand, false); err != nil {
			s.logger.Warn("upload merge failed", "person", id, "date", date, "error", err)
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return 0, ErrNoValidRows
	}
	return accepted, nil
}

// ListFacts returns all facts, most recent first.
func (s *Service) ListFacts(ctx context.Context) ([]Fact, error) {
	facts, err := s.facts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing facts: %w", err)
	}
	return facts, nil
}

// LastRun returns the last-run slot.
func (s *Service) LastRun() RunStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Service) setRunning(running bool) {
	s.statusMu.Lock()
	s.status.Running = running
	s.statusMu.Unlock()
}

func (s *Service) recordSuccess(out RunOutcome) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	o := out
	s.status.LastSuccess = &o
	s.status.LastFailure = nil
}

func (s *Service) recordFailure(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastFailure = &RunFailure{Error: err.Error(), FailedAt: time.Now().UTC()}
}
