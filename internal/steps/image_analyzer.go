package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// ImageAnalyzer extracts visual information from concept images.
//
// Records without images never enter this step; they start at concept
// breakdown instead.
type ImageAnalyzer struct {
	reasoner Reasoner
	logger   *zap.Logger
}

// NewImageAnalyzer creates the image-analysis handler.
func NewImageAnalyzer(reasoner Reasoner, logger *zap.Logger) *ImageAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageAnalyzer{reasoner: reasoner, logger: logger}
}

// Step returns the identifier this handler serves.
func (h *ImageAnalyzer) Step() evaluation.Step { return evaluation.StepImageAnalyzer }

// Handle analyzes the concept images and records the findings.
func (h *ImageAnalyzer) Handle(ctx context.Context, rec *evaluation.Record) (*evaluation.Record, error) {
	var analysis evaluation.ImageAnalysis
	req := Request{
		System:      engineerSystem,
		Prompt:      imageAnalysisPrompt(rec.Concept),
		Images:      rec.ConceptImages,
		Temperature: assessTemperature,
	}
	if err := h.reasoner.Complete(ctx, req, &analysis); err != nil {
		return nil, fmt.Errorf("%w: image analysis: %v", evaluation.ErrCollaborator, err)
	}

	rec.ImageAnalysis = &analysis
	rec.AppendMessage(string(h.Step()), fmt.Sprintf(
		"Image analysis complete. Identified %d components. %s",
		len(analysis.IdentifiedComponents), analysis.Summary,
	))
	rec.CurrentStep = evaluation.StepConceptBreaker

	h.logger.Debug("image analysis complete",
		zap.Int("identified_components", len(analysis.IdentifiedComponents)),
	)
	return rec, nil
}
