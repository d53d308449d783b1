package deployment

import (
	"errors"
	"fmt"
	"time"
)

const (
	invalidInputTemplateConstant        = "invalid repository url %q: %s"
	linkingErrorTemplateConstant        = "project %s has no linked GitHub repository identifier"
	deploymentFailedTemplateConstant    = "deployment %s failed with state %s"
	deploymentFailedReasonTemplate      = "deployment %s failed with state %s: %s"
	deploymentIntegrityTemplateConstant = "deployment %s is READY but reported no URL"
	pollingTimeoutTemplateConstant      = "deployment %s did not reach a terminal state within %s"
)

var (
	// ErrPlatformClientNotConfigured indicates the service was constructed without a deployment platform client.
	ErrPlatformClientNotConfigured = errors.New("deployment: platform client not configured")
	// ErrDeploymentIDMissing indicates the platform accepted a deployment without returning its identifier.
	ErrDeploymentIDMissing = errors.New("deployment: platform returned no deployment id")
)

// InvalidInputError reports a repository URL without an owner/repository path.
type InvalidInputError struct {
	Input   string
	Message string
}

// Error describes the malformed input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputTemplateConstant, inputError.Input, inputError.Message)
}

// LinkingError reports a project for which no repository identifier could be obtained.
type LinkingError struct {
	Project string
}

// Error names the unlinked project.
func (linkingError LinkingError) Error() string {
	return fmt.Sprintf(linkingErrorTemplateConstant, linkingError.Project)
}

// DeploymentFailedError reports a deployment that reached a terminal failure state.
type DeploymentFailedError struct {
	DeploymentID string
	State        string
	Reason       string
}

// Error includes the platform reason when one was reported.
func (failedError DeploymentFailedError) Error() string {
	if len(failedError.Reason) == 0 {
		return fmt.Sprintf(deploymentFailedTemplateConstant, failedError.DeploymentID, failedError.State)
	}
	return fmt.Sprintf(deploymentFailedReasonTemplate, failedError.DeploymentID, failedError.State, failedError.Reason)
}

// DeploymentIntegrityError reports a READY deployment without a resolvable URL.
type DeploymentIntegrityError struct {
	DeploymentID string
}

// Error describes the missing URL.
func (integrityError DeploymentIntegrityError) Error() string {
	return fmt.Sprintf(deploymentIntegrityTemplateConstant, integrityError.DeploymentID)
}

// PollingTimeoutError reports that polling exceeded its bound.
type PollingTimeoutError struct {
	DeploymentID string
	Elapsed      time.Duration
}

// Error reports the elapsed duration.
func (timeoutError PollingTimeoutError) Error() string {
	return fmt.Sprintf(pollingTimeoutTemplateConstant, timeoutError.DeploymentID, timeoutError.Elapsed)
}
