package steps

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

const (
	// engineerSystem frames every assessment call.
	engineerSystem = "You are a specialized packaging engineer with expertise in materials, " +
		"manufacturing processes, and structural design. Respond with a single JSON object " +
		"matching the requested schema, with no surrounding prose."

	// assessTemperature keeps assessment output consistent between passes.
	assessTemperature = 0.2

	// retrievalLimit is how many knowledge passages ground an assessment.
	retrievalLimit = 5
)

func imageAnalysisPrompt(concept string) string {
	return fmt.Sprintf(`Analyze the provided packaging concept images.

Packaging concept description:
%s

Extract: visible components and their arrangement, materials that appear to be
used, structural design elements, and notable features. Consider manufacturing
implications and potential challenges.

Reply with JSON fields: observations ([]string), identified_components
([]string), materials_detected ([]string), design_features ([]string),
analysis_summary (string).`, concept)
}

func conceptBreakdownPrompt(concept, imageSummary string) string {
	if imageSummary == "" {
		imageSummary = "No image analysis available"
	}
	return fmt.Sprintf(`Break the packaging concept down into its components.

Packaging concept:
%s

Image analysis:
%s

Identify every component, visible and hidden, including assembly requirements.
For each, give its name, material (as descriptive as possible), primary
function, and the requirements it must fulfill.

Reply with JSON fields: components ([]{name, material, function,
requirements []string}).`, concept, imageSummary)
}

func technicalPrompt(components []evaluation.Component, knowledge []Passage) string {
	return fmt.Sprintf(`Assess the technical feasibility of the packaging concept.

Components:
%s
%s
Evaluate each component's feasibility against material properties and
manufacturing processes, identify technical challenges, and give an overall
verdict.

Reply with JSON fields: overall_feasible (bool), component_assessments
([]{component_name, feasible, notes, challenges []string, technical_score
0.0-1.0}), technical_summary (string).`, formatComponents(components), formatKnowledge(knowledge))
}

func operationsPrompt(components []evaluation.Component, technicalSummary string, knowledge []Passage) string {
	if technicalSummary == "" {
		technicalSummary = "No technical assessment available"
	}
	return fmt.Sprintf(`Assess the operational impact of implementing the packaging concept.

Components:
%s

Technical assessment:
%s
%s
Evaluate supply chain impact, production process changes, and cost
implications.

Reply with JSON fields: supply_chain_impact (Low/Medium/High),
production_changes_needed ([]string), cost_impact (string), overall_feasible
(bool), operational_summary (string).`, formatComponents(components), technicalSummary, formatKnowledge(knowledge))
}

func reflectionPrompt(technicalSummary, operationalSummary string) string {
	if technicalSummary == "" {
		technicalSummary = "No technical assessment available"
	}
	if operationalSummary == "" {
		operationalSummary = "No operational assessment available"
	}
	return fmt.Sprintf(`Review the technical and operational assessments.

Technical assessment:
%s

Operational assessment:
%s

Identify blind spots, raise questions that still need answers, and decide
whether another assessment pass is required.

Reply with JSON fields: blind_spots ([]string), questions ([]string),
requires_iteration (bool), reflection_summary (string), assessment_approved
(bool), iteration_count (int).`, technicalSummary, operationalSummary)
}

func finalScorePrompt(technicalSummary, operationalSummary, reflectionSummary string) string {
	if technicalSummary == "" {
		technicalSummary = "No technical assessment available"
	}
	if operationalSummary == "" {
		operationalSummary = "No operational assessment available"
	}
	if reflectionSummary == "" {
		reflectionSummary = "No reflection notes available"
	}
	return fmt.Sprintf(`Produce the final evaluation of the packaging concept.

Technical assessment:
%s

Operational assessment:
%s

Reflection notes:
%s

Give an overall feasibility score from 1 to 10, key strengths and challenges,
specific improvement recommendations, a clear go/no-go decision, and action
items.

Reply with JSON fields: feasibility_score (1-10), feasibility_summary,
expert_rationale, key_strengths ([]string), key_challenges ([]string),
improvement_recommendations ([]{area, recommendation}), go_decision (bool),
action_items ([]string), executive_summary.`, technicalSummary, operationalSummary, reflectionSummary)
}

// feedbackRequestMessage is the narrative prompt shown to the human reviewer.
func feedbackRequestMessage(components []evaluation.Component) string {
	var b strings.Builder
	b.WriteString("Please review the component breakdown:\n\n")
	for _, c := range components {
		fmt.Fprintf(&b, "- Component: %s\n  Material: %s\n  Function: %s\n  Requirements: %s\n",
			c.Name, c.Material, c.Function, strings.Join(c.Requirements, ", "))
	}
	b.WriteString("\nAre the component identifications and material assumptions correct? ")
	b.WriteString("Submit feedback with is_correct, feedback_notes, and suggested_changes.")
	return b.String()
}

func formatComponents(components []evaluation.Component) string {
	var b strings.Builder
	for _, c := range components {
		fmt.Fprintf(&b, "- %s (Material: %s, Function: %s)\n", c.Name, c.Material, c.Function)
	}
	return b.String()
}

// formatKnowledge renders retrieved passages as a prompt section. Empty
// retrieval renders nothing so prompts degrade gracefully without RAG.
func formatKnowledge(passages []Passage) string {
	if len(passages) == 0 {
		return "\n"
	}
	var b strings.Builder
	b.WriteString("\nRelevant knowledge base entries:\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "- %s\n", p.Content)
	}
	b.WriteString("\n")
	return b.String()
}
