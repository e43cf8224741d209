// Package aiassist implements the AI analysis adapter: the optional
// enrichment step that asks an external language-model provider to propose
// or refine component structure from human-readable input. Prompts are
// derived from the template catalog so the model is only asked to produce
// what the emitter can render.
//
// The adapter retries failed provider calls up to five times with
// exponential backoff and records one call outcome per attempt. After the
// retry budget is exhausted it returns a sentinel unavailable result; it
// never lets a provider failure escape this boundary. The orchestrator
// decides how to proceed.
package aiassist
