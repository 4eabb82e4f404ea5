package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// FinalScore produces the overall evaluation and completes the process.
type FinalScore struct {
	reasoner Reasoner
	logger   *zap.Logger
}

// NewFinalScore creates the final-evaluation handler.
func NewFinalScore(reasoner Reasoner, logger *zap.Logger) *FinalScore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalScore{reasoner: reasoner, logger: logger}
}

// Step returns the identifier this handler serves.
func (h *FinalScore) Step() evaluation.Step { return evaluation.StepFinalScore }

// Handle scores the concept and marks the record complete. This is the only
// step that sets the completion flag; no transition follows it.
func (h *FinalScore) Handle(ctx context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	technicalSummary := ""
	if rec.TechnicalAssessment != nil {
		technicalSummary = rec.TechnicalAssessment.Summary
	}
	operationalSummary := ""
	if rec.OperationalAssessment != nil {
		operationalSummary = rec.OperationalAssessment.Summary
	}
	reflectionSummary := ""
	if rec.ReflectionNotes != nil {
		reflectionSummary = rec.ReflectionNotes.Summary
	}

	var final evaluation.FinalEvaluation
	req := Request{
		System:      engineerSystem,
		Prompt:      finalScorePrompt(technicalSummary, operationalSummary, reflectionSummary),
		Temperature: assessTemperature,
	}
	if err := h.reasoner.Complete(ctx, req, &final); err != nil {
		return nil, fmt.Errorf("%w: final evaluation: %v", evaluation.ErrCollaborator, err)
	}

	rec.FinalEvaluation = &final
	rec.ProcessComplete = true
	rec.AppendMessage(string(h.Step()), fmt.Sprintf(
		"Final evaluation complete. Score: %d/10. Go decision: %t",
		final.Score, final.GoDecision,
	))

	h.logger.Info("final evaluation complete",
		zap.Int("score", final.Score),
		zap.Bool("go_decision", final.GoDecision),
	)
	return rec, nil
}
