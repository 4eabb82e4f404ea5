package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// componentList is the structured reply schema for concept breakdown.
type componentList struct {
	Components []evaluation.Component `json:"components"`
}

// ConceptBreaker decomposes the concept into components. It runs again after
// rejected feedback, re-deriving the component list from scratch.
type ConceptBreaker struct {
	reasoner Reasoner
	logger   *zap.Logger
}

// NewConceptBreaker creates the concept-breakdown handler.
func NewConceptBreaker(reasoner Reasoner, logger *zap.Logger) *ConceptBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConceptBreaker{reasoner: reasoner, logger: logger}
}

// Step returns the identifier this handler serves.
func (h *ConceptBreaker) Step() evaluation.Step { return evaluation.StepConceptBreaker }

// Handle derives the component list and routes to the feedback gate.
func (h *ConceptBreaker) Handle(ctx context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	imageSummary := ""
	if rec.ImageAnalysis != nil {
		imageSummary = rec.ImageAnalysis.Summary
	}

	var list componentList
	req := Request{
		System:      engineerSystem,
		Prompt:      conceptBreakdownPrompt(rec.Concept, imageSummary),
		Temperature: assessTemperature,
	}
	if err := h.reasoner.Complete(ctx, req, &list); err != nil {
		return nil, fmt.Errorf("%w: concept breakdown: %v", evaluation.ErrCollaborator, err)
	}

	rec.Components = list.Components
	rec.AppendMessage(string(h.Step()), fmt.Sprintf(
		"Concept breakdown complete. Identified %d components.", len(list.Components),
	))
	rec.CurrentStep = evaluation.StepHumanFeedback

	h.logger.Debug("concept breakdown complete", zap.Int("components", len(list.Components)))
	return rec, nil
}
