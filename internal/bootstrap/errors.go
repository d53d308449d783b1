package bootstrap

import (
	"errors"
	"fmt"
)

const stepErrorTemplateConstant = "bootstrap step %s failed: %v"

var (
	// ErrRepositoryCreatorNotConfigured indicates the service was constructed without a repository creator.
	ErrRepositoryCreatorNotConfigured = errors.New("bootstrap: repository creator not configured")
	// ErrGitManagerNotConfigured indicates the service was constructed without a git manager.
	ErrGitManagerNotConfigured = errors.New("bootstrap: git manager not configured")
	// ErrFileSystemNotConfigured indicates the service was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New("bootstrap: file system not configured")
	// ErrRepositoryNameRequired indicates an empty repository name.
	ErrRepositoryNameRequired = errors.New("bootstrap: repository name required")
	// ErrLocalPathRequired indicates an empty working tree path.
	ErrLocalPathRequired = errors.New("bootstrap: local path required")
)

// StepError attributes a bootstrap failure to the step that produced it.
type StepError struct {
	Step  StepName
	Cause error
}

// Error names the failed step and its cause.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepErrorTemplateConstant, stepError.Step, stepError.Cause)
}

// Unwrap exposes the underlying failure.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}
