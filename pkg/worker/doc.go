// Package worker provides a generic bounded worker pool. Batch generation
// uses it to run multiple jobs concurrently with a fixed queue; submissions
// beyond the queue capacity are rejected rather than blocking the caller.
package worker
