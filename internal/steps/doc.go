// Package steps implements the handlers for each evaluation step.
//
// Each handler performs at most one reasoning call and, for the assessment
// steps, one retrieval call against the knowledge base. Handlers write their
// artifacts and the declared next step into the record clone they receive;
// the evaluation driver validates the transition and owns the record between
// steps. Collaborator failures wrap evaluation.ErrCollaborator so the caller
// can re-run the loop from the unchanged checkpoint.
package steps

import (
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// All returns the full handler set for the evaluation graph.
func All(reasoner Reasoner, retriever Retriever, logger *zap.Logger) []evaluation.Handler {
	return []evaluation.Handler{
		NewImageAnalyzer(reasoner, logger),
		NewConceptBreaker(reasoner, logger),
		NewHumanFeedback(logger),
		NewProcessFeedback(logger),
		NewTechnicalFeasibility(reasoner, retriever, logger),
		NewOperations(reasoner, retriever, logger),
		NewReflection(reasoner, logger),
		NewFinalScore(reasoner, logger),
	}
}
