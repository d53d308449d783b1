package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

const (
	environmentAssignmentSeparatorConstant   = "="
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"
)

// OSCommandRunner executes commands using os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the command and reports non-zero exits through ExecutionResult rather than an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := exec.CommandContext(executionContext, string(command.Name), append([]string{}, command.Details.Arguments...)...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	environment := append([]string{}, os.Environ()...)
	if command.Name == CommandGit {
		// git must never block waiting for credentials on a terminal.
		environment = append(environment, gitTerminalPromptEnvironmentNameConstant+environmentAssignmentSeparatorConstant+gitTerminalPromptDisabledValueConstant)
	}
	for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
		environment = append(environment, environmentKey+environmentAssignmentSeparatorConstant+environmentValue)
	}
	executable.Env = environment

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}, nil
}
