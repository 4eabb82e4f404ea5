package steps

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// TechnicalFeasibility assesses per-component manufacturability, grounding
// the reasoning call in knowledge-base passages about materials, machines,
// and processes.
type TechnicalFeasibility struct {
	reasoner  Reasoner
	retriever Retriever
	logger    *zap.Logger
}

// NewTechnicalFeasibility creates the technical-assessment handler.
// retriever may be nil, in which case the assessment runs without grounding.
func NewTechnicalFeasibility(reasoner Reasoner, retriever Retriever, logger *zap.Logger) *TechnicalFeasibility {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TechnicalFeasibility{reasoner: reasoner, retriever: retriever, logger: logger}
}

// Step returns the identifier this handler serves.
func (h *TechnicalFeasibility) Step() evaluation.Step { return evaluation.StepTechnicalFeasibility }

// Handle assesses the components and routes to the operations step.
func (h *TechnicalFeasibility) Handle(ctx context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	knowledge, err := retrieveForComponents(ctx, h.retriever, rec.Components)
	if err != nil {
		return nil, fmt.Errorf("%w: technical knowledge retrieval: %v", evaluation.ErrCollaborator, err)
	}

	var assessment evaluation.TechnicalAssessment
	req := Request{
		System:      engineerSystem,
		Prompt:      technicalPrompt(rec.Components, knowledge),
		Temperature: assessTemperature,
	}
	if err := h.reasoner.Complete(ctx, req, &assessment); err != nil {
		return nil, fmt.Errorf("%w: technical assessment: %v", evaluation.ErrCollaborator, err)
	}

	rec.TechnicalAssessment = &assessment
	rec.AppendMessage(string(h.Step()), fmt.Sprintf(
		"Technical feasibility assessment complete. Overall feasibility: %t", assessment.OverallFeasible,
	))
	rec.CurrentStep = evaluation.StepOperations

	h.logger.Debug("technical assessment complete",
		zap.Bool("feasible", assessment.OverallFeasible),
		zap.Int("grounding_passages", len(knowledge)),
	)
	return rec, nil
}

// retrieveForComponents queries the knowledge base with the component
// materials and functions. A nil retriever yields no grounding.
func retrieveForComponents(ctx context.Context, retriever Retriever, components []evaluation.Component) ([]Passage, error) {
	if retriever == nil || len(components) == 0 {
		return nil, nil
	}
	terms := make([]string, 0, len(components))
	for _, c := range components {
		terms = append(terms, c.Material+" "+c.Function)
	}
	return retriever.Retrieve(ctx, strings.Join(terms, "; "), retrievalLimit)
}
