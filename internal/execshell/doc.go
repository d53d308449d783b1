// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with structured logging via ShellExecutor, exposes
// OSCommandRunner for default process execution, and redacts credentials
// embedded in remote URLs before any command line reaches a log sink. The
// bootstrap workflow drives git exclusively through this package so that
// process invocations can be replaced with recording runners in tests.
package execshell
