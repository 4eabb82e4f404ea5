package evaluation

import "errors"

// Sentinel errors for the evaluation core.
var (
	// ErrConfiguration indicates an invalid registry or an illegal declared
	// transition. Fatal at construction or at the offending step; never
	// retried and never silently corrected.
	ErrConfiguration = errors.New("evaluation configuration error")

	// ErrUnknownStep indicates the record's current step does not exist in
	// the registry. The record is corrupted and the session is not resumable.
	ErrUnknownStep = errors.New("unknown evaluation step")

	// ErrMissingFeedback indicates process_feedback ran without recorded
	// feedback. The caller resumed out of order.
	ErrMissingFeedback = errors.New("no user feedback available to process")

	// ErrCollaborator indicates an external reasoning or retrieval call
	// failed. The record is left unchanged, so the caller may re-run the
	// loop from the same checkpoint.
	ErrCollaborator = errors.New("collaborator call failed")
)

// Resumable reports whether a session that surfaced err may be re-run from
// its last checkpoint. Collaborator failures are; configuration, unknown-step
// and missing-feedback failures are not.
func Resumable(err error) bool {
	return errors.Is(err, ErrCollaborator)
}
