package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	gitCommandNameConstant                    = "git"
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %v"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName(gitCommandNameConstant)

// CommandDetails describes the arguments and environment of an invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that ran but exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command with its redacted command line.
func (failedError CommandFailedError) Error() string {
	label := CommandMessageFormatter{}.formatCommandLabel(failedError.Command)
	trimmedStandardError := strings.TrimSpace(RedactCredentials(failedError.Result.StandardError))
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, label, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, label, failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	label := CommandMessageFormatter{}.formatCommandLabel(executionError.Command)
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, label, executionError.Cause)
}

// Unwrap exposes the underlying runner error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}
