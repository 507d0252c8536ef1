// Package cli constructs the cachemig command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives around the legacy cache migration command.
package cli
