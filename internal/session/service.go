// Package session manages evaluation sessions across the HITL boundary.
//
// A session owns exactly one evaluation record. Start runs the driver until
// the first suspension or completion; Resume attaches human feedback and
// continues from the stored checkpoint. Sessions are independent, so
// horizontal concurrency needs no shared locking beyond the session index.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

const instrumentationName = "github.com/fyrsmithlabs/packeval/internal/session"

// Sentinel errors for session operations.
var (
	// ErrSessionNotFound indicates an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFailed indicates the session is unrecoverable.
	ErrSessionFailed = errors.New("session failed and cannot be resumed")

	// ErrNotAwaitingFeedback indicates feedback was submitted while the
	// session was not parked at the feedback step.
	ErrNotAwaitingFeedback = errors.New("session is not awaiting feedback")

	// ErrSessionBusy indicates a concurrent operation on the same session.
	ErrSessionBusy = errors.New("session is currently running")
)

// Config configures the session service.
type Config struct {
	// CheckpointDir is where session snapshots are persisted for HITL
	// resumption across restarts. Empty disables persistence.
	CheckpointDir string
}

// Service starts, resumes, and snapshots evaluation sessions.
type Service struct {
	driver *evaluation.Driver
	config Config
	logger *zap.Logger
	tracer trace.Tracer

	mu       sync.RWMutex
	sessions map[string]*entry
}

// entry guards one session against concurrent runs.
type entry struct {
	mu   sync.Mutex
	sess *Session
}

// NewService creates a session service over the given driver.
func NewService(driver *evaluation.Driver, cfg Config, logger *zap.Logger) (*Service, error) {
	if driver == nil {
		return nil, errors.New("driver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CheckpointDir != "" {
		if err := os.MkdirAll(cfg.CheckpointDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating checkpoint directory: %w", err)
		}
	}
	return &Service{
		driver:   driver,
		config:   cfg,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		sessions: make(map[string]*entry),
	}, nil
}

// Start constructs a record for the concept and runs the evaluation until it
// completes or parks for feedback.
//
// On a collaborator failure the session is stored stalled with its unchanged
// checkpoint and returned alongside the error, so the caller can retry. An
// unrecoverable error marks the session failed.
func (s *Service) Start(ctx context.Context, concept string, images []string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.Start")
	defer span.End()

	if concept == "" {
		return nil, errors.New("concept is required")
	}

	now := time.Now().UTC()
	e := &entry{sess: &Session{
		ID:        uuid.NewString(),
		Record:    evaluation.NewRecord(concept, images),
		CreatedAt: now,
		UpdatedAt: now,
	}}
	span.SetAttributes(attribute.String("session_id", e.sess.ID))

	s.mu.Lock()
	s.sessions[e.sess.ID] = e
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return s.run(ctx, e)
}

// Resume attaches feedback to a parked session and continues the evaluation.
//
// Resuming a complete session is a no-op that returns the snapshot
// unchanged. Submitting feedback to a session that is not parked at the
// feedback step is rejected.
func (s *Service) Resume(ctx context.Context, id string, feedback *evaluation.UserFeedback) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.Resume")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id))

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if !e.mu.TryLock() {
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, id)
	}
	defer e.mu.Unlock()

	switch e.sess.Status {
	case StatusComplete:
		return snapshot(e.sess), nil
	case StatusFailed:
		return nil, fmt.Errorf("%w: %s", ErrSessionFailed, id)
	}

	if feedback != nil {
		if !e.sess.Record.AwaitingHumanInput {
			return nil, fmt.Errorf("%w: %s", ErrNotAwaitingFeedback, id)
		}
		e.sess.Record.UserFeedback = feedback
	}

	return s.run(ctx, e)
}

// Retry re-runs a stalled session from its unchanged checkpoint.
func (s *Service) Retry(ctx context.Context, id string) (*Session, error) {
	return s.Resume(ctx, id, nil)
}

// Get returns the session snapshot.
func (s *Service) Get(_ context.Context, id string) (*Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.sess), nil
}

// run advances the session's record through the driver and records the
// outcome. The caller holds the session lock.
func (s *Service) run(ctx context.Context, e *entry) (*Session, error) {
	rec, err := s.driver.Run(ctx, e.sess.Record)
	e.sess.Record = rec
	e.sess.UpdatedAt = time.Now().UTC()

	switch {
	case err == nil && rec.ProcessComplete:
		e.sess.Status = StatusComplete
		e.sess.Error = ""
	case err == nil:
		e.sess.Status = StatusAwaitingFeedback
		e.sess.Error = ""
	case evaluation.Resumable(err):
		e.sess.Status = StatusStalled
		e.sess.Error = err.Error()
	default:
		e.sess.Status = StatusFailed
		e.sess.Error = err.Error()
	}

	s.persist(e.sess)

	s.logger.Info("session advanced",
		zap.String("session_id", e.sess.ID),
		zap.String("status", string(e.sess.Status)),
		zap.String("step", string(rec.CurrentStep)),
	)

	if err != nil {
		return snapshot(e.sess), err
	}
	return snapshot(e.sess), nil
}

// lookup finds a session in memory, falling back to a persisted checkpoint.
func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	e = &entry{sess: sess}
	s.sessions[id] = e
	return e, nil
}

// persist writes the session snapshot to the checkpoint directory.
func (s *Service) persist(sess *Session) {
	if s.config.CheckpointDir == "" {
		return
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		s.logger.Warn("marshaling session checkpoint", zap.Error(err))
		return
	}
	path := filepath.Join(s.config.CheckpointDir, sess.ID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		s.logger.Warn("writing session checkpoint",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

// load reads a persisted session checkpoint.
func (s *Service) load(id string) (*Session, error) {
	if s.config.CheckpointDir == "" {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	path := filepath.Join(s.config.CheckpointDir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("reading session checkpoint: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session checkpoint: %w", err)
	}
	return &sess, nil
}

// snapshot deep-copies a session for return to callers, so the stored record
// is never aliased outside the service.
func snapshot(sess *Session) *Session {
	out := *sess
	out.Record = sess.Record.Clone()
	return &out
}
