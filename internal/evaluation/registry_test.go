package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockHandler is a mock implementation of Handler
type MockHandler struct {
	mock.Mock
	step Step
}

func NewMockHandler(step Step) *MockHandler {
	return &MockHandler{step: step}
}

func (m *MockHandler) Step() Step {
	return m.step
}

func (m *MockHandler) Handle(ctx context.Context, rec *Record) (*Record, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

// fullHandlerSet returns one mock handler per registered step.
func fullHandlerSet() []Handler {
	handlers := make([]Handler, 0, len(AllSteps()))
	for _, step := range AllSteps() {
		handlers = append(handlers, NewMockHandler(step))
	}
	return handlers
}

func TestNewRegistry(t *testing.T) {
	t.Run("builds the default graph", func(t *testing.T) {
		registry, err := NewRegistry(DefaultTransitions(), fullHandlerSet(), zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, registry)

		for _, step := range AllSteps() {
			handler, err := registry.Lookup(step)
			require.NoError(t, err)
			assert.Equal(t, step, handler.Step())
		}
	})

	t.Run("rejects duplicate handlers", func(t *testing.T) {
		handlers := append(fullHandlerSet(), NewMockHandler(StepReflection))
		_, err := NewRegistry(DefaultTransitions(), handlers, zap.NewNop())
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "duplicate handler")
	})

	t.Run("rejects a step without a handler", func(t *testing.T) {
		handlers := fullHandlerSet()[:len(AllSteps())-1] // drop final_score
		_, err := NewRegistry(DefaultTransitions(), handlers, zap.NewNop())
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "no handler registered")
	})

	t.Run("rejects a step without exits", func(t *testing.T) {
		transitions := DefaultTransitions()
		transitions[StepOperations] = nil
		_, err := NewRegistry(transitions, fullHandlerSet(), zap.NewNop())
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "declares no exits")
	})

	t.Run("rejects an exit to an unregistered step", func(t *testing.T) {
		transitions := DefaultTransitions()
		transitions[StepOperations] = []Step{Step("quality_audit")}
		_, err := NewRegistry(transitions, fullHandlerSet(), zap.NewNop())
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "unregistered step")
	})

	t.Run("accepts terminal as an exit target", func(t *testing.T) {
		_, err := NewRegistry(DefaultTransitions(), fullHandlerSet(), zap.NewNop())
		require.NoError(t, err)
	})
}

func TestRegistryLookup(t *testing.T) {
	registry, err := NewRegistry(DefaultTransitions(), fullHandlerSet(), zap.NewNop())
	require.NoError(t, err)

	t.Run("unknown step", func(t *testing.T) {
		_, err := registry.Lookup(Step("forged"))
		assert.ErrorIs(t, err, ErrUnknownStep)
	})

	t.Run("terminal is not a registered step", func(t *testing.T) {
		_, err := registry.Lookup(StepTerminal)
		assert.ErrorIs(t, err, ErrUnknownStep)
	})
}

func TestRegistryRoute(t *testing.T) {
	registry, err := NewRegistry(DefaultTransitions(), fullHandlerSet(), zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name     string
		from     Step
		declared Step
		wantErr  bool
	}{
		{"image analysis to breakdown", StepImageAnalyzer, StepConceptBreaker, false},
		{"breakdown to feedback gate", StepConceptBreaker, StepHumanFeedback, false},
		{"feedback self loop", StepHumanFeedback, StepHumanFeedback, false},
		{"feedback to processing", StepHumanFeedback, StepProcessFeedback, false},
		{"rejection back to breakdown", StepProcessFeedback, StepConceptBreaker, false},
		{"acceptance to technical", StepProcessFeedback, StepTechnicalFeasibility, false},
		{"technical to operations", StepTechnicalFeasibility, StepOperations, false},
		{"operations to reflection", StepOperations, StepReflection, false},
		{"reflection iterates technical", StepReflection, StepTechnicalFeasibility, false},
		{"reflection iterates operations", StepReflection, StepOperations, false},
		{"reflection to final", StepReflection, StepFinalScore, false},
		{"final to terminal", StepFinalScore, StepTerminal, false},
		{"breakdown cannot skip the gate", StepConceptBreaker, StepTechnicalFeasibility, true},
		{"technical cannot jump to final", StepTechnicalFeasibility, StepFinalScore, true},
		{"operations cannot loop to itself", StepOperations, StepOperations, true},
		{"final cannot restart", StepFinalScore, StepConceptBreaker, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			declared, err := registry.Route(tt.from, tt.declared)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.declared, declared)
		})
	}

	t.Run("unknown from step", func(t *testing.T) {
		_, err := registry.Route(Step("forged"), StepConceptBreaker)
		assert.ErrorIs(t, err, ErrUnknownStep)
	})

	t.Run("routing is deterministic", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			declared, err := registry.Route(StepReflection, StepFinalScore)
			require.NoError(t, err)
			assert.Equal(t, StepFinalScore, declared)
		}
	})
}

func TestDefaultTransitions(t *testing.T) {
	transitions := DefaultTransitions()
	assert.Len(t, transitions, len(AllSteps()))
	for _, step := range AllSteps() {
		assert.NotEmpty(t, transitions[step], "step %q has no exits", step)
	}
}
