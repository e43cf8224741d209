// Package status reports generation progress to interested collaborators.
// Reports are advisory and fire-and-forget: a failed publish is logged and
// dropped, never propagated into the generation pipeline.
package status
