// Package template provides the read-only component template library used by
// the generation engine. The library is loaded once at startup from an
// embedded catalog and shared across concurrent generation jobs; it defines
// the closed set of canonical component kinds, the free-text aliases that
// resolve to them, per-kind required configuration keys and defaults, and the
// prompt fragments handed to the AI analysis adapter so the model is only
// asked to produce structures the emitter can render.
package template
