// Package flowgraph assembles and validates the directed flow graph at the
// heart of a generation job. The builder turns normalized component specs
// plus any explicit sequence flows into a fully connected graph, closing
// unspecified connections with a deterministic nearest-neighbor rule over the
// declared component order. The triad expander then externalizes adapter
// boundary components into the service-task / participant / message-flow
// triple the target collaboration format requires.
//
// A FlowGraph is built fresh per job, mutated only by the pipeline stages in
// fixed order, and never shared across concurrent jobs.
package flowgraph
