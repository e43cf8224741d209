// Package config loads and validates the engine configuration. Configuration
// is a single YAML document; secrets are referenced by environment variable
// name and resolved at load time so they never appear in the file itself.
package config
