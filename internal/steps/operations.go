package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// Operations assesses supply-chain and production impact.
type Operations struct {
	reasoner  Reasoner
	retriever Retriever
	logger    *zap.Logger
}

// NewOperations creates the operational-assessment handler.
// retriever may be nil, in which case the assessment runs without grounding.
func NewOperations(reasoner Reasoner, retriever Retriever, logger *zap.Logger) *Operations {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Operations{reasoner: reasoner, retriever: retriever, logger: logger}
}

// Step returns the identifier this handler serves.
func (h *Operations) Step() evaluation.Step { return evaluation.StepOperations }

// Handle assesses operational impact and routes to reflection.
func (h *Operations) Handle(ctx context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	knowledge, err := retrieveForComponents(ctx, h.retriever, rec.Components)
	if err != nil {
		return nil, fmt.Errorf("%w: operations knowledge retrieval: %v", evaluation.ErrCollaborator, err)
	}

	technicalSummary := ""
	if rec.TechnicalAssessment != nil {
		technicalSummary = rec.TechnicalAssessment.Summary
	}

	var assessment evaluation.OperationalAssessment
	req := Request{
		System:      engineerSystem,
		Prompt:      operationsPrompt(rec.Components, technicalSummary, knowledge),
		Temperature: assessTemperature,
	}
	if err := h.reasoner.Complete(ctx, req, &assessment); err != nil {
		return nil, fmt.Errorf("%w: operational assessment: %v", evaluation.ErrCollaborator, err)
	}

	rec.OperationalAssessment = &assessment
	rec.AppendMessage(string(h.Step()), fmt.Sprintf(
		"Operational impact assessment complete. Overall feasibility: %t", assessment.OverallFeasible,
	))
	rec.CurrentStep = evaluation.StepReflection

	h.logger.Debug("operational assessment complete",
		zap.Bool("feasible", assessment.OverallFeasible),
		zap.String("supply_chain_impact", assessment.SupplyChainImpact),
	)
	return rec, nil
}
