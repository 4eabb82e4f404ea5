package evaluation

// Component is a single piece of a packaging concept.
type Component struct {
	// Name identifies the component.
	Name string `json:"name"`
	// Material the component is made of.
	Material string `json:"material"`
	// Function is the component's primary purpose.
	Function string `json:"function"`
	// Requirements the component must fulfill.
	Requirements []string `json:"requirements"`
}

// ImageAnalysis captures what the visual step observed in concept images.
type ImageAnalysis struct {
	// Observations are key findings from the images.
	Observations []string `json:"observations"`
	// IdentifiedComponents are components visible in the images.
	IdentifiedComponents []string `json:"identified_components"`
	// MaterialsDetected are materials that appear to be used.
	MaterialsDetected []string `json:"materials_detected"`
	// DesignFeatures are notable design elements.
	DesignFeatures []string `json:"design_features"`
	// Summary condenses the analysis.
	Summary string `json:"analysis_summary"`
}

// ComponentAssessment is the technical verdict for one component.
type ComponentAssessment struct {
	// ComponentName names the component being assessed.
	ComponentName string `json:"component_name"`
	// Feasible reports whether the component can be manufactured as described.
	Feasible bool `json:"feasible"`
	// Notes are detailed assessment notes.
	Notes string `json:"notes"`
	// Challenges are technical risks identified.
	Challenges []string `json:"challenges"`
	// Score is the per-component feasibility score (0.0-1.0).
	Score float64 `json:"technical_score"`
}

// TechnicalAssessment is the technical-feasibility artifact.
type TechnicalAssessment struct {
	// OverallFeasible is the concept-level verdict.
	OverallFeasible bool `json:"overall_feasible"`
	// Components holds one assessment per component.
	Components []ComponentAssessment `json:"component_assessments"`
	// Summary condenses the assessment.
	Summary string `json:"technical_summary"`
}

// OperationalAssessment is the operational-impact artifact.
type OperationalAssessment struct {
	// SupplyChainImpact is Low/Medium/High.
	SupplyChainImpact string `json:"supply_chain_impact"`
	// ProductionChanges are changes needed to production processes.
	ProductionChanges []string `json:"production_changes_needed"`
	// CostImpact estimates the cost implication.
	CostImpact string `json:"cost_impact"`
	// OverallFeasible is the operational verdict.
	OverallFeasible bool `json:"overall_feasible"`
	// Summary condenses the assessment.
	Summary string `json:"operational_summary"`
}

// ReflectionNotes is the artifact produced by the reflection step.
type ReflectionNotes struct {
	// BlindSpots are gaps identified in the assessments.
	BlindSpots []string `json:"blind_spots"`
	// Questions are open questions raised during reflection.
	Questions []string `json:"questions"`
	// RequiresIteration requests another assessment pass.
	RequiresIteration bool `json:"requires_iteration"`
	// Summary condenses the reflection.
	Summary string `json:"reflection_summary"`
	// AssessmentApproved reports whether the assessments hold up.
	AssessmentApproved bool `json:"assessment_approved"`
	// IterationCount is the number of passes completed so far.
	IterationCount int `json:"iteration_count"`
}

// Recommendation is one specific improvement suggestion.
type Recommendation struct {
	// Area of the concept to improve.
	Area string `json:"area"`
	// Recommendation is the suggested change.
	Recommendation string `json:"recommendation"`
}

// FinalEvaluation is the terminal artifact with the score and verdict.
type FinalEvaluation struct {
	// Score is the overall feasibility score (1-10).
	Score int `json:"feasibility_score"`
	// Summary condenses the overall feasibility.
	Summary string `json:"feasibility_summary"`
	// Rationale explains the reasoning behind the score.
	Rationale string `json:"expert_rationale"`
	// Strengths are the concept's key strengths.
	Strengths []string `json:"key_strengths"`
	// Challenges are the key barriers.
	Challenges []string `json:"key_challenges"`
	// Recommendations are specific improvement suggestions.
	Recommendations []Recommendation `json:"improvement_recommendations"`
	// GoDecision reports whether to proceed with the concept.
	GoDecision bool `json:"go_decision"`
	// ActionItems are recommended next steps.
	ActionItems []string `json:"action_items"`
	// ExecutiveSummary is a brief summary for stakeholders.
	ExecutiveSummary string `json:"executive_summary"`
}

// UserFeedback is human feedback on the component breakdown.
type UserFeedback struct {
	// IsCorrect confirms or rejects the component and material assumptions.
	IsCorrect bool `json:"is_correct"`
	// Notes are free-form feedback notes.
	Notes []string `json:"feedback_notes"`
	// SuggestedChanges lists specific changes the reviewer wants.
	SuggestedChanges []string `json:"suggested_changes"`
}

// Message is one entry in the append-only evaluation log.
type Message struct {
	// Actor is the step that produced the message.
	Actor string `json:"actor"`
	// Text is the narrative output.
	Text string `json:"text"`
}
