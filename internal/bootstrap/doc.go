// Package bootstrap creates a remote GitHub repository and publishes a local
// working tree to it.
//
// BootstrapAndPush discards any existing git metadata, records a fresh
// history, points origin at the authenticated remote and force-pushes main.
// Each stage runs as a named step; the first failure aborts the sequence with
// a StepError naming the step. Nothing is rolled back.
package bootstrap
