package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
	"github.com/fyrsmithlabs/packeval/internal/knowledge"
	"github.com/fyrsmithlabs/packeval/internal/session"
	"github.com/fyrsmithlabs/packeval/internal/telemetry"
)

// MockSessions is a mock implementation of Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Start(ctx context.Context, concept string, images []string) (*session.Session, error) {
	args := m.Called(ctx, concept, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Resume(ctx context.Context, id string, feedback *evaluation.UserFeedback) (*session.Session, error) {
	args := m.Called(ctx, id, feedback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Retry(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

// MockKnowledge is a mock implementation of Knowledge
type MockKnowledge struct {
	mock.Mock
}

func (m *MockKnowledge) AddMachine(ctx context.Context, spec knowledge.MachineSpec) (*knowledge.Entry, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.Entry), args.Error(1)
}

func (m *MockKnowledge) AddMaterial(ctx context.Context, spec knowledge.MaterialSpec) (*knowledge.Entry, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.Entry), args.Error(1)
}

func (m *MockKnowledge) AddProcess(ctx context.Context, spec knowledge.ProcessSpec) (*knowledge.Entry, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.Entry), args.Error(1)
}

func (m *MockKnowledge) AddDocument(ctx context.Context, doc knowledge.Document) ([]knowledge.Entry, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]knowledge.Entry), args.Error(1)
}

func (m *MockKnowledge) Search(ctx context.Context, query string, k int) ([]knowledge.Entry, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]knowledge.Entry), args.Error(1)
}

func newTestServer(t *testing.T, sessions Sessions, kb Knowledge) *Server {
	t.Helper()
	srv, err := NewServer(sessions, kb, zap.NewNop(), nil)
	require.NoError(t, err)
	return srv
}

func doJSON(srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func parkedSession(id string) *session.Session {
	return &session.Session{
		ID:     id,
		Status: session.StatusAwaitingFeedback,
		Record: &evaluation.Record{
			Concept:            "cup",
			CurrentStep:        evaluation.StepHumanFeedback,
			AwaitingHumanInput: true,
		},
	}
}

func TestNewServer(t *testing.T) {
	t.Run("requires dependencies", func(t *testing.T) {
		_, err := NewServer(nil, new(MockKnowledge), zap.NewNop(), nil)
		assert.ErrorContains(t, err, "session service")

		_, err = NewServer(new(MockSessions), nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "knowledge service")

		_, err = NewServer(new(MockSessions), new(MockKnowledge), nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
		assert.Equal(t, "localhost", srv.config.Host)
		assert.Equal(t, 8080, srv.config.Port)
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
	rec := doJSON(srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
	rec := doJSON(srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExport(t *testing.T) {
	// Request metrics must reach a prometheus scrape once the SDK provider
	// is installed, exactly as the daemon wires it at startup.
	registry := prometheus.NewRegistry()
	tel, err := telemetry.New(telemetry.Config{ServiceName: "packeval", ServiceVersion: "test"},
		telemetry.WithRegisterer(registry))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
	rec := doJSON(srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	scrape := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).
		ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := scrape.Body.String()
	assert.Contains(t, body, "packeval_http_requests_total")
	assert.Contains(t, body, `endpoint="/health"`)
	assert.Contains(t, body, "packeval_http_request_duration_seconds")
}

func TestHandleStartEvaluation(t *testing.T) {
	t.Run("starts a session", func(t *testing.T) {
		sessions := new(MockSessions)
		sessions.On("Start", mock.Anything, "compostable cup", []string{"cup.jpg"}).
			Return(parkedSession("s1"), nil)

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations", EvaluationRequest{
			Concept: "compostable cup",
			Images:  []string{"cup.jpg"},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var got session.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "s1", got.ID)
		assert.Equal(t, session.StatusAwaitingFeedback, got.Status)
		sessions.AssertExpectations(t)
	})

	t.Run("requires a concept", func(t *testing.T) {
		srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations", EvaluationRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stalled session returns the snapshot with 502", func(t *testing.T) {
		stalled := parkedSession("s2")
		stalled.Status = session.StatusStalled
		stalled.Error = "collaborator call failed: model offline"

		sessions := new(MockSessions)
		sessions.On("Start", mock.Anything, "cup", mock.Anything).
			Return(stalled, fmt.Errorf("%w: model offline", evaluation.ErrCollaborator))

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations", EvaluationRequest{Concept: "cup"})

		require.Equal(t, http.StatusBadGateway, rec.Code)
		var got session.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, session.StatusStalled, got.Status)
	})
}

func TestHandleFeedback(t *testing.T) {
	t.Run("resumes with the submitted feedback", func(t *testing.T) {
		done := &session.Session{ID: "s1", Status: session.StatusComplete,
			Record: &evaluation.Record{ProcessComplete: true}}

		sessions := new(MockSessions)
		sessions.On("Resume", mock.Anything, "s1", &evaluation.UserFeedback{
			IsCorrect:        false,
			Notes:            []string{"wrong lid material"},
			SuggestedChanges: []string{"use fiber lid"},
		}).Return(done, nil)

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations/s1/feedback", FeedbackRequest{
			IsCorrect:        false,
			Notes:            []string{"wrong lid material"},
			SuggestedChanges: []string{"use fiber lid"},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		sessions.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		sessions := new(MockSessions)
		sessions.On("Resume", mock.Anything, "nope", mock.Anything).
			Return(nil, fmt.Errorf("%w: nope", session.ErrSessionNotFound))

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations/nope/feedback", FeedbackRequest{IsCorrect: true})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("session not awaiting feedback", func(t *testing.T) {
		sessions := new(MockSessions)
		sessions.On("Resume", mock.Anything, "s1", mock.Anything).
			Return(nil, fmt.Errorf("%w: s1", session.ErrNotAwaitingFeedback))

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations/s1/feedback", FeedbackRequest{IsCorrect: true})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleRetry(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("Retry", mock.Anything, "s1").Return(parkedSession("s1"), nil)

	srv := newTestServer(t, sessions, new(MockKnowledge))
	rec := doJSON(srv, http.MethodPost, "/api/v1/evaluations/s1/retry", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	sessions.AssertExpectations(t)
}

func TestHandleGetEvaluation(t *testing.T) {
	t.Run("returns the snapshot", func(t *testing.T) {
		sessions := new(MockSessions)
		sessions.On("Get", mock.Anything, "s1").Return(parkedSession("s1"), nil)

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodGet, "/api/v1/evaluations/s1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var got session.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, evaluation.StepHumanFeedback, got.Record.CurrentStep)
	})

	t.Run("unknown session", func(t *testing.T) {
		sessions := new(MockSessions)
		sessions.On("Get", mock.Anything, "nope").
			Return(nil, fmt.Errorf("%w: nope", session.ErrSessionNotFound))

		srv := newTestServer(t, sessions, new(MockKnowledge))
		rec := doJSON(srv, http.MethodGet, "/api/v1/evaluations/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleIngestKnowledge(t *testing.T) {
	t.Run("ingests a machine", func(t *testing.T) {
		kb := new(MockKnowledge)
		kb.On("AddMachine", mock.Anything, mock.MatchedBy(func(spec knowledge.MachineSpec) bool {
			return spec.Name == "die-cutter"
		})).Return(&knowledge.Entry{ID: "e1", Type: knowledge.EntryMachine}, nil)

		srv := newTestServer(t, new(MockSessions), kb)
		rec := doJSON(srv, http.MethodPost, "/api/v1/knowledge", IngestRequest{
			Type:    knowledge.EntryMachine,
			Machine: &knowledge.MachineSpec{Name: "die-cutter", Specifications: "flatbed"},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var got IngestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Entries, 1)
		assert.Equal(t, "e1", got.Entries[0].ID)
	})

	t.Run("ingests a document as chunks", func(t *testing.T) {
		kb := new(MockKnowledge)
		kb.On("AddDocument", mock.Anything, mock.Anything).
			Return([]knowledge.Entry{{ID: "d_0"}, {ID: "d_1"}}, nil)

		srv := newTestServer(t, new(MockSessions), kb)
		rec := doJSON(srv, http.MethodPost, "/api/v1/knowledge", IngestRequest{
			Type:     knowledge.EntryDocument,
			Document: &knowledge.Document{Name: "handbook", Content: "..."},
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var got IngestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got.Entries, 2)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/knowledge", IngestRequest{Type: "recipe"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a missing payload", func(t *testing.T) {
		srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
		rec := doJSON(srv, http.MethodPost, "/api/v1/knowledge", IngestRequest{Type: knowledge.EntryMaterial})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty content maps to bad request", func(t *testing.T) {
		kb := new(MockKnowledge)
		kb.On("AddProcess", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: process entry", knowledge.ErrEmptyContent))

		srv := newTestServer(t, new(MockSessions), kb)
		rec := doJSON(srv, http.MethodPost, "/api/v1/knowledge", IngestRequest{
			Type:    knowledge.EntryProcess,
			Process: &knowledge.ProcessSpec{Name: "x"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleSearchKnowledge(t *testing.T) {
	t.Run("searches with the given k", func(t *testing.T) {
		kb := new(MockKnowledge)
		kb.On("Search", mock.Anything, "flexo printing", 3).
			Return([]knowledge.Entry{{ID: "e1", Content: "flexo basics"}}, nil)

		srv := newTestServer(t, new(MockSessions), kb)
		rec := doJSON(srv, http.MethodGet, "/api/v1/knowledge/search?q=flexo+printing&k=3", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var got SearchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "flexo printing", got.Query)
		require.Len(t, got.Entries, 1)
		kb.AssertExpectations(t)
	})

	t.Run("requires a query", func(t *testing.T) {
		srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
		rec := doJSON(srv, http.MethodGet, "/api/v1/knowledge/search", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a non-numeric k", func(t *testing.T) {
		srv := newTestServer(t, new(MockSessions), new(MockKnowledge))
		rec := doJSON(srv, http.MethodGet, "/api/v1/knowledge/search?q=x&k=lots", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
