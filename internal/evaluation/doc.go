// Package evaluation implements the packaging-evaluation workflow core.
//
// # Overview
//
// An evaluation runs a concept through a fixed graph of assessment steps:
//
//	image_analyzer → concept_breaker → human_feedback → process_feedback
//	              → technical_feasibility → operations → reflection
//	              → final_score
//
// with two cycles: the human-feedback gate may send the concept back for
// re-decomposition, and reflection may re-run the technical or operational
// assessment up to a hard ceiling of three passes.
//
// # Key Components
//
//   - Record: the single state aggregate for one session. The driver holds
//     the authoritative copy; handlers receive clones and return replacements,
//     so a failed step leaves the prior record intact.
//   - Registry: the closed step table, validated once at construction.
//     Every allowed-next target must be registered or the terminal sentinel.
//   - Driver: the cooperative loop. It suspends at step boundaries when the
//     record completes or parks awaiting human input, returning the record as
//     a serializable checkpoint. Resumption is a fresh Run call, not a
//     blocked goroutine.
//
// Handlers call external reasoning and retrieval collaborators; the core
// never inspects those calls, only the fields written back into the record.
package evaluation
