// Package flowbridge converts extracted legacy integration-flow documents
// into importable process-diagram bundles for a modern integration runtime.
//
// # Architecture
//
// A generation job walks a ladder of tiers until one produces a valid
// bundle:
//
//	┌──────────────────────────────┐
//	│      Full AI tier            │  provider proposes the structure
//	└──────────────┬───────────────┘
//	               ↓ downgrade on rejection or unavailability
//	┌──────────────────────────────┐
//	│   Enhanced template tier     │  strict catalog normalization,
//	└──────────────┬───────────────┘  optional AI name enrichment
//	               ↓ downgrade on unsupported input
//	┌──────────────────────────────┐
//	│  Deterministic fallback tier │  always renders something valid,
//	└──────────────────────────────┘  byte-identical for identical input
//
// Whichever tier supplies the component specs, the back half of the
// pipeline is shared: graph construction with placeholder-flow closure,
// adapter triad expansion, grid layout, document emission with round-trip
// self-validation, and bundle packaging.
//
// # Packages
//
// Pipeline:
//   - ir: raw document types and catalog-backed normalization
//   - template: the embedded component template library
//   - flowgraph: validated process graph, closure, adapter expansion
//   - layout: diagram coordinate assignment
//   - bpmn: document emission, re-parsing, bundle packaging
//   - generator: the tier ladder orchestrator
//   - aiassist: language-model provider boundary with bounded retries
//
// Infrastructure:
//   - config: YAML configuration loading and validation
//   - errors: classified errors driving retry and downgrade decisions
//   - metric: prometheus instrumentation
//   - status: fire-and-forget progress reporting (log or NATS)
//   - pkg/retry: exponential backoff retry policies
//   - pkg/worker: bounded worker pool for batch runs
//
// # Binary
//
// Build and run the generator:
//
//	go build -o bin/flowbridge ./cmd/flowbridge
//	./bin/flowbridge -input flow.json -config flowbridge.yaml
//	./bin/flowbridge -input-dir ./flows -workers 8
package flowbridge
