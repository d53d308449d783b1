// Package telemetry provides the optional metrics registry and trace provider
// used by the workflows. Both are inert unless configured: metrics are only
// persisted when a textfile path is set and spans are only exported when an
// OTLP endpoint is set.
package telemetry
