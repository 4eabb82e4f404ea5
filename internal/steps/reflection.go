package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// Reflection reviews the assessments and decides whether another pass is
// needed.
//
// The counter is incremented on every entry, before the collaborator is
// consulted. At the ceiling the step routes unconditionally to the final
// score, overriding the collaborator's own iterate recommendation. That is
// the liveness guarantee: an evaluation terminates in a bounded number of
// reassessment cycles no matter how uncertain the collaborator remains.
type Reflection struct {
	reasoner Reasoner
	logger   *zap.Logger
}

// NewReflection creates the reflection handler.
func NewReflection(reasoner Reasoner, logger *zap.Logger) *Reflection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reflection{reasoner: reasoner, logger: logger}
}

// Step returns the identifier this handler serves.
func (h *Reflection) Step() evaluation.Step { return evaluation.StepReflection }

// Handle increments the counter, reflects, and routes.
func (h *Reflection) Handle(ctx context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	rec.ReflectionCounter++

	if rec.ReflectionCounter >= evaluation.MaxReflections {
		rec.AppendMessage(string(h.Step()), fmt.Sprintf(
			"Maximum number of reflections reached (%d). Moving to final evaluation.",
			evaluation.MaxReflections,
		))
		rec.CurrentStep = evaluation.StepFinalScore
		h.logger.Debug("reflection ceiling reached", zap.Int("counter", rec.ReflectionCounter))
		return rec, nil
	}

	technicalSummary := ""
	if rec.TechnicalAssessment != nil {
		technicalSummary = rec.TechnicalAssessment.Summary
	}
	operationalSummary := ""
	if rec.OperationalAssessment != nil {
		operationalSummary = rec.OperationalAssessment.Summary
	}

	var notes evaluation.ReflectionNotes
	req := Request{
		System:      engineerSystem,
		Prompt:      reflectionPrompt(technicalSummary, operationalSummary),
		Temperature: assessTemperature,
	}
	if err := h.reasoner.Complete(ctx, req, &notes); err != nil {
		return nil, fmt.Errorf("%w: reflection: %v", evaluation.ErrCollaborator, err)
	}
	notes.IterationCount = rec.ReflectionCounter

	rec.ReflectionNotes = &notes
	rec.AppendMessage(string(h.Step()), fmt.Sprintf(
		"Reflection %d/%d complete. Requires iteration: %t",
		rec.ReflectionCounter, evaluation.MaxReflections, notes.RequiresIteration,
	))

	// Tie-break policy: open questions always prefer re-running the
	// technical assessment over operations.
	switch {
	case notes.RequiresIteration && len(notes.Questions) > 0:
		rec.CurrentStep = evaluation.StepTechnicalFeasibility
	case notes.RequiresIteration:
		rec.CurrentStep = evaluation.StepOperations
	default:
		rec.CurrentStep = evaluation.StepFinalScore
	}

	h.logger.Debug("reflection complete",
		zap.Int("counter", rec.ReflectionCounter),
		zap.Bool("requires_iteration", notes.RequiresIteration),
		zap.String("next", string(rec.CurrentStep)),
	)
	return rec, nil
}
