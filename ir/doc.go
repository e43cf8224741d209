// Package ir defines the intermediate representation produced by upstream
// flow analysis and the normalizer that coerces it into canonical component
// specs. The IR is platform-neutral: a list of loosely typed component
// descriptions with optional ordering hints and explicit sequence flows.
// Normalization resolves free-text type strings against the template catalog,
// fills per-kind configuration defaults, and rejects anything the closed kind
// enum cannot express. The stage is pure: same document in, same specs out,
// no side effects.
package ir
