// Package retry provides bounded exponential backoff retry logic for
// transient failures at the AI provider boundary.
//
// # Core Functions
//
//   - Do: execute a function with retry and exponential backoff
//   - DoWithResult: same, returning both result and error
//
// # Attempt Observation
//
// Config.Notify is invoked once per failed attempt before the backoff sleep.
// The analysis adapter uses it to record one GenerationAttempt per provider
// call, so the retry loop stays free of bookkeeping concerns.
//
// # Context Cancellation
//
// All retry operations respect context cancellation and stop immediately,
// both during operation execution and during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
