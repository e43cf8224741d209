// Package bpmn serializes a validated flow graph and its layout into the
// target integration-flow document: a BPMN2 definitions element carrying the
// collaboration (participants and message flows), the process (events,
// tasks, gateways, sequence flows), and the diagram (shapes and edges keyed
// by the ids produced in earlier stages). It also packages the document with
// its manifest, externalized parameters, and generated script bodies into an
// importable bundle.
//
// Every emission is self-validated: the emitted XML is re-parsed, the graph
// is rebuilt from it, and the structural invariants are re-checked before
// the bytes leave this package.
package bpmn
