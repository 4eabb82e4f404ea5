package steps

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// HumanFeedback is the suspend point of the human-in-the-loop gate.
//
// With no feedback recorded it emits a review request, marks the record as
// awaiting input, and declares itself as the next step. The driver treats
// that self-transition as a suspension: it halts before the step would run
// again, so the self-loop never spins. Once feedback is present the step
// clears the awaiting flag and routes to feedback processing.
type HumanFeedback struct {
	logger *zap.Logger
}

// NewHumanFeedback creates the feedback-gate handler.
func NewHumanFeedback(logger *zap.Logger) *HumanFeedback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HumanFeedback{logger: logger}
}

// Step returns the identifier this handler serves.
func (h *HumanFeedback) Step() evaluation.Step { return evaluation.StepHumanFeedback }

// Handle parks the record or forwards recorded feedback for processing.
func (h *HumanFeedback) Handle(_ context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	if rec.UserFeedback == nil {
		rec.AppendMessage(string(h.Step()), feedbackRequestMessage(rec.Components))
		rec.AwaitingHumanInput = true
		rec.CurrentStep = evaluation.StepHumanFeedback
		h.logger.Debug("awaiting human feedback", zap.Int("components", len(rec.Components)))
		return rec, nil
	}

	rec.AwaitingHumanInput = false
	rec.CurrentStep = evaluation.StepProcessFeedback
	return rec, nil
}

// ProcessFeedback routes on the reviewer's verdict: reject sends the concept
// back for re-decomposition, accept moves it into technical assessment. The
// feedback is cleared in both branches so the same object can never be
// reprocessed on a later pass through the graph.
type ProcessFeedback struct {
	logger *zap.Logger
}

// NewProcessFeedback creates the feedback-processing handler.
func NewProcessFeedback(logger *zap.Logger) *ProcessFeedback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessFeedback{logger: logger}
}

// Step returns the identifier this handler serves.
func (h *ProcessFeedback) Step() evaluation.Step { return evaluation.StepProcessFeedback }

// Handle consumes the recorded feedback and declares the next step.
func (h *ProcessFeedback) Handle(_ context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	fb := rec.UserFeedback
	if fb == nil {
		return nil, evaluation.ErrMissingFeedback
	}

	if fb.IsCorrect {
		rec.AppendMessage(string(h.Step()), "Processing feedback. Components confirmed correct.")
		rec.CurrentStep = evaluation.StepTechnicalFeasibility
	} else {
		rec.AppendMessage(string(h.Step()), "Processing feedback. Changes requested.")
		if len(fb.SuggestedChanges) > 0 {
			rec.AppendMessage(string(h.Step()), fmt.Sprintf(
				"Adjusting components based on feedback: %s", strings.Join(fb.SuggestedChanges, ", "),
			))
		}
		rec.CurrentStep = evaluation.StepConceptBreaker
	}

	// Loop-breaking invariant: the feedback is consumed exactly once.
	rec.UserFeedback = nil

	h.logger.Debug("feedback processed",
		zap.Bool("accepted", fb.IsCorrect),
		zap.String("next", string(rec.CurrentStep)),
	)
	return rec, nil
}
