// Package layout computes deterministic 2D coordinates and edge routing for
// the generated flow diagram. Nodes are placed on a grid: the column is the
// longest-path distance from the start node, the row is the sibling index at
// that column, with router branches fanning out one row per extra outgoing
// edge. Participants are placed in bands above (senders) and below
// (receivers) the process area, aligned with the column of their bound task.
//
// Layout never fails on a validated graph. A traversal anomaly here means an
// upstream invariant was violated without being caught and is surfaced as a
// fatal internal error, not a user-facing failure.
package layout
