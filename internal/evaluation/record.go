package evaluation

// MaxReflections is the hard ceiling on reflective re-assessment cycles.
// Once the counter reaches it, the reflection step must route to the final
// score regardless of what the collaborator recommends.
const MaxReflections = 3

// Record is the single state aggregate for one evaluation session.
//
// A Record is owned by exactly one session and never shared. The driver holds
// the authoritative copy between steps; each handler receives a clone and
// returns the replacement, so a failed handler leaves the prior record intact.
type Record struct {
	// Concept is the packaging concept under evaluation.
	Concept string `json:"packaging_concept"`
	// ConceptImages are URL or base64 references to concept images.
	ConceptImages []string `json:"concept_images,omitempty"`

	// Derived artifacts, nil/empty until produced, overwritten on re-derivation.
	Components            []Component            `json:"components,omitempty"`
	ImageAnalysis         *ImageAnalysis         `json:"image_analysis,omitempty"`
	TechnicalAssessment   *TechnicalAssessment   `json:"technical_assessment,omitempty"`
	OperationalAssessment *OperationalAssessment `json:"operational_assessment,omitempty"`
	ReflectionNotes       *ReflectionNotes       `json:"reflection_notes,omitempty"`
	FinalEvaluation       *FinalEvaluation       `json:"final_evaluation,omitempty"`

	// Control fields.
	CurrentStep        Step          `json:"current_step"`
	ProcessComplete    bool          `json:"process_complete"`
	AwaitingHumanInput bool          `json:"awaiting_human_input"`
	ReflectionCounter  int           `json:"reflection_counter"`
	UserFeedback       *UserFeedback `json:"user_feedback,omitempty"`

	// Messages is the append-only narrative log.
	Messages []Message `json:"messages"`
}

// NewRecord creates a record for the given concept.
//
// The image-analysis step is entered only when images were supplied;
// image-free records start directly at concept breakdown.
func NewRecord(concept string, images []string) *Record {
	start := StepImageAnalyzer
	if len(images) == 0 {
		start = StepConceptBreaker
	}
	return &Record{
		Concept:       concept,
		ConceptImages: append([]string(nil), images...),
		CurrentStep:   start,
	}
}

// AppendMessage grows the log by one entry. The log is never mutated or
// reordered.
func (r *Record) AppendMessage(actor, text string) {
	r.Messages = append(r.Messages, Message{Actor: actor, Text: text})
}

// Clone returns a deep copy of the record. Handlers operate on clones so the
// driver's copy survives a failed step unchanged.
func (r *Record) Clone() *Record {
	c := *r
	c.ConceptImages = append([]string(nil), r.ConceptImages...)
	c.Messages = append([]Message(nil), r.Messages...)

	if r.Components != nil {
		c.Components = make([]Component, len(r.Components))
		for i, comp := range r.Components {
			comp.Requirements = append([]string(nil), comp.Requirements...)
			c.Components[i] = comp
		}
	}
	if r.ImageAnalysis != nil {
		ia := *r.ImageAnalysis
		ia.Observations = append([]string(nil), r.ImageAnalysis.Observations...)
		ia.IdentifiedComponents = append([]string(nil), r.ImageAnalysis.IdentifiedComponents...)
		ia.MaterialsDetected = append([]string(nil), r.ImageAnalysis.MaterialsDetected...)
		ia.DesignFeatures = append([]string(nil), r.ImageAnalysis.DesignFeatures...)
		c.ImageAnalysis = &ia
	}
	if r.TechnicalAssessment != nil {
		ta := *r.TechnicalAssessment
		ta.Components = make([]ComponentAssessment, len(r.TechnicalAssessment.Components))
		for i, ca := range r.TechnicalAssessment.Components {
			ca.Challenges = append([]string(nil), ca.Challenges...)
			ta.Components[i] = ca
		}
		c.TechnicalAssessment = &ta
	}
	if r.OperationalAssessment != nil {
		oa := *r.OperationalAssessment
		oa.ProductionChanges = append([]string(nil), r.OperationalAssessment.ProductionChanges...)
		c.OperationalAssessment = &oa
	}
	if r.ReflectionNotes != nil {
		rn := *r.ReflectionNotes
		rn.BlindSpots = append([]string(nil), r.ReflectionNotes.BlindSpots...)
		rn.Questions = append([]string(nil), r.ReflectionNotes.Questions...)
		c.ReflectionNotes = &rn
	}
	if r.FinalEvaluation != nil {
		fe := *r.FinalEvaluation
		fe.Strengths = append([]string(nil), r.FinalEvaluation.Strengths...)
		fe.Challenges = append([]string(nil), r.FinalEvaluation.Challenges...)
		fe.Recommendations = append([]Recommendation(nil), r.FinalEvaluation.Recommendations...)
		fe.ActionItems = append([]string(nil), r.FinalEvaluation.ActionItems...)
		c.FinalEvaluation = &fe
	}
	if r.UserFeedback != nil {
		uf := *r.UserFeedback
		uf.Notes = append([]string(nil), r.UserFeedback.Notes...)
		uf.SuggestedChanges = append([]string(nil), r.UserFeedback.SuggestedChanges...)
		c.UserFeedback = &uf
	}
	return &c
}
