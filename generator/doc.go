// Package generator coordinates the tiered generation cascade. A job walks
// down a ladder of tiers until one produces a valid bundle: a full AI
// structure proposal first, then template-driven generation with optional AI
// metadata enrichment, then a deterministic fallback that always renders
// something installable from whatever the IR contains.
//
// Tier failures classified as invalid or transient downgrade to the next
// tier; fatal failures abort the job. Every attempt is recorded so callers
// can see which tiers ran and why they were rejected.
package generator
