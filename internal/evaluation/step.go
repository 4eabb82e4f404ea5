package evaluation

import "context"

// Step identifies one unit of work in the evaluation graph.
type Step string

const (
	// StepImageAnalyzer extracts visual information from concept images.
	StepImageAnalyzer Step = "image_analyzer"

	// StepConceptBreaker decomposes the concept into components.
	StepConceptBreaker Step = "concept_breaker"

	// StepHumanFeedback parks the evaluation for human review.
	StepHumanFeedback Step = "human_feedback"

	// StepProcessFeedback routes on the reviewer's accept/reject verdict.
	StepProcessFeedback Step = "process_feedback"

	// StepTechnicalFeasibility assesses per-component manufacturability.
	StepTechnicalFeasibility Step = "technical_feasibility"

	// StepOperations assesses supply-chain and production impact.
	StepOperations Step = "operations"

	// StepReflection reviews the assessments and decides whether to iterate.
	StepReflection Step = "reflection"

	// StepFinalScore produces the score and completes the evaluation.
	StepFinalScore Step = "final_score"

	// StepTerminal is the sentinel marking the end of the graph. It is a
	// legal allowed-next target but never a registered step.
	StepTerminal Step = "terminal"
)

// AllSteps returns every registered step identifier.
func AllSteps() []Step {
	return []Step{
		StepImageAnalyzer,
		StepConceptBreaker,
		StepHumanFeedback,
		StepProcessFeedback,
		StepTechnicalFeasibility,
		StepOperations,
		StepReflection,
		StepFinalScore,
	}
}

// Handler executes the work for one step.
//
// A handler receives a clone of the current record, performs at most one call
// to an external collaborator, writes its artifacts and the declared next
// step into the clone, and returns it. On error the clone is discarded and
// the prior record stands.
type Handler interface {
	// Step returns the identifier this handler serves.
	Step() Step

	// Handle runs the step and returns the replacement record.
	Handle(ctx context.Context, rec *Record) (*Record, error)
}
