// Package metric provides the prometheus metrics for the generation engine:
// per-tier attempt counters, pipeline stage durations, AI retry counts, and
// job outcomes. A Registry is created once at startup and shared read-only
// by concurrent generation jobs.
package metric
