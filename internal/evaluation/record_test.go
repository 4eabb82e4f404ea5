package evaluation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	t.Run("with images starts at image analysis", func(t *testing.T) {
		rec := NewRecord("foldable pizza box", []string{"https://example.com/box.jpg"})
		assert.Equal(t, StepImageAnalyzer, rec.CurrentStep)
		assert.Equal(t, []string{"https://example.com/box.jpg"}, rec.ConceptImages)
	})

	t.Run("without images starts at concept breakdown", func(t *testing.T) {
		rec := NewRecord("foldable pizza box", nil)
		assert.Equal(t, StepConceptBreaker, rec.CurrentStep)
		assert.Empty(t, rec.ConceptImages)
	})

	t.Run("does not alias the caller's image slice", func(t *testing.T) {
		images := []string{"a.jpg"}
		rec := NewRecord("box", images)
		images[0] = "changed.jpg"
		assert.Equal(t, "a.jpg", rec.ConceptImages[0])
	})

	t.Run("starts clean", func(t *testing.T) {
		rec := NewRecord("box", nil)
		assert.False(t, rec.ProcessComplete)
		assert.False(t, rec.AwaitingHumanInput)
		assert.Zero(t, rec.ReflectionCounter)
		assert.Nil(t, rec.UserFeedback)
		assert.Empty(t, rec.Messages)
	})
}

func TestAppendMessage(t *testing.T) {
	rec := NewRecord("box", nil)
	rec.AppendMessage("concept_breaker", "first")
	rec.AppendMessage("human_feedback", "second")

	require.Len(t, rec.Messages, 2)
	assert.Equal(t, Message{Actor: "concept_breaker", Text: "first"}, rec.Messages[0])
	assert.Equal(t, Message{Actor: "human_feedback", Text: "second"}, rec.Messages[1])
}

func TestRecordClone(t *testing.T) {
	original := &Record{
		Concept:       "returnable glass bottle crate",
		ConceptImages: []string{"crate.jpg"},
		Components: []Component{
			{Name: "crate body", Material: "HDPE", Function: "carry bottles", Requirements: []string{"stackable"}},
		},
		ImageAnalysis: &ImageAnalysis{
			Observations:         []string{"ribbed walls"},
			IdentifiedComponents: []string{"crate body"},
			MaterialsDetected:    []string{"HDPE"},
			DesignFeatures:       []string{"handle cutouts"},
			Summary:              "injection-molded crate",
		},
		TechnicalAssessment: &TechnicalAssessment{
			OverallFeasible: true,
			Components: []ComponentAssessment{
				{ComponentName: "crate body", Feasible: true, Challenges: []string{"mold cost"}, Score: 0.9},
			},
			Summary: "feasible",
		},
		OperationalAssessment: &OperationalAssessment{
			SupplyChainImpact: "Low",
			ProductionChanges: []string{"new mold"},
			OverallFeasible:   true,
		},
		ReflectionNotes: &ReflectionNotes{
			BlindSpots: []string{"return logistics"},
			Questions:  []string{"washing line capacity?"},
		},
		FinalEvaluation: &FinalEvaluation{
			Score:           8,
			Strengths:       []string{"durability"},
			Challenges:      []string{"deposit system"},
			Recommendations: []Recommendation{{Area: "logistics", Recommendation: "pilot regionally"}},
			ActionItems:     []string{"mold quote"},
		},
		UserFeedback: &UserFeedback{
			IsCorrect:        false,
			Notes:            []string{"missing divider"},
			SuggestedChanges: []string{"add bottle dividers"},
		},
		CurrentStep:       StepReflection,
		ReflectionCounter: 1,
		Messages:          []Message{{Actor: "concept_breaker", Text: "done"}},
	}

	clone := original.Clone()

	t.Run("equal by value", func(t *testing.T) {
		// JSON round-trip comparison catches missed fields when the record grows.
		wantJSON, err := json.Marshal(original)
		require.NoError(t, err)
		gotJSON, err := json.Marshal(clone)
		require.NoError(t, err)
		assert.JSONEq(t, string(wantJSON), string(gotJSON))
	})

	t.Run("mutating the clone leaves the original intact", func(t *testing.T) {
		clone.ConceptImages[0] = "other.jpg"
		clone.Components[0].Requirements[0] = "mutated"
		clone.ImageAnalysis.Observations[0] = "mutated"
		clone.TechnicalAssessment.Components[0].Challenges[0] = "mutated"
		clone.OperationalAssessment.ProductionChanges[0] = "mutated"
		clone.ReflectionNotes.Questions[0] = "mutated"
		clone.FinalEvaluation.Recommendations[0].Area = "mutated"
		clone.UserFeedback.SuggestedChanges[0] = "mutated"
		clone.Messages[0].Text = "mutated"
		clone.AppendMessage("reflection", "extra")
		clone.ReflectionCounter = 99

		assert.Equal(t, "crate.jpg", original.ConceptImages[0])
		assert.Equal(t, "stackable", original.Components[0].Requirements[0])
		assert.Equal(t, "ribbed walls", original.ImageAnalysis.Observations[0])
		assert.Equal(t, "mold cost", original.TechnicalAssessment.Components[0].Challenges[0])
		assert.Equal(t, "new mold", original.OperationalAssessment.ProductionChanges[0])
		assert.Equal(t, "washing line capacity?", original.ReflectionNotes.Questions[0])
		assert.Equal(t, "logistics", original.FinalEvaluation.Recommendations[0].Area)
		assert.Equal(t, "add bottle dividers", original.UserFeedback.SuggestedChanges[0])
		assert.Equal(t, "done", original.Messages[0].Text)
		assert.Len(t, original.Messages, 1)
		assert.Equal(t, 1, original.ReflectionCounter)
	})

	t.Run("clone of a sparse record", func(t *testing.T) {
		sparse := NewRecord("box", nil)
		c := sparse.Clone()
		assert.Equal(t, sparse, c)
		assert.NotSame(t, sparse, c)
	})
}
