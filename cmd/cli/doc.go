// Package cli constructs the shipyard command-line interface. It wires the
// Cobra command hierarchy, the layered configuration loader, structured
// logging and telemetry, and hands every command a service factory bound to
// the loaded configuration.
package cli
