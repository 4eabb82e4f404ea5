package steps

import "context"

// Request carries one formatted reasoning call.
type Request struct {
	// System is the system prompt framing the call.
	System string
	// Prompt is the task-specific prompt.
	Prompt string
	// Images are URL or base64 image references for multimodal calls.
	Images []string
	// Temperature controls sampling. Zero means the client default.
	Temperature float64
}

// Reasoner is the reasoning collaborator invoked by step handlers.
//
// Implementations submit the formatted request to a language model and
// decode the structured JSON reply into out, which must be a pointer to the
// step's artifact type. The orchestrator never inspects the call, only the
// decoded artifact.
type Reasoner interface {
	Complete(ctx context.Context, req Request, out any) error
}

// Passage is one ranked retrieval result.
type Passage struct {
	// Content is the retrieved text.
	Content string
	// Metadata carries source attributes (entry type, name, etc.).
	Metadata map[string]any
	// Score is the similarity score, highest first.
	Score float32
}

// Retriever is the retrieval collaborator used by the assessment steps to
// ground their reasoning in the knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}
