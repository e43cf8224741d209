// Package errors provides standardized error handling for the FlowBridge
// generation engine. It defines the sentinel errors for each failure mode of
// the pipeline, an error classification scheme that drives the orchestrator's
// tier-downgrade decisions, and helpers for consistent error wrapping.
//
// Classification semantics:
//
//   - Transient errors (AI provider timeouts, 5xx responses, malformed AI
//     output) may be retried within the same generation tier.
//   - Invalid errors (unsupported component kinds, graph invariant
//     violations) are never retried with the same tier; the orchestrator
//     downgrades to the next tier.
//   - Fatal errors (layout anomalies, tier exhaustion) abort the job and are
//     surfaced to the caller with the full attempt trail.
package errors
