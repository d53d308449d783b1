package deployment

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/vercelapi"
)

// PollDecision is the verdict of ClassifyDeployment for one status check.
type PollDecision int

// Poll decisions.
const (
	PollDecisionRetry PollDecision = iota
	PollDecisionSucceeded
	PollDecisionFailed
)

const (
	// DefaultPollTimeout bounds polling when no timeout is supplied.
	DefaultPollTimeout = 300 * time.Second
	// DefaultPollInterval separates status checks when no interval is supplied.
	DefaultPollInterval = 10 * time.Second
)

const (
	httpsPrefixConstant            = "https://"
	httpPrefixConstant             = "http://"
	fetchErrorStateConstant        = "fetch_error"
	pollSpanNameConstant           = "deployment.poll"
	deploymentIDAttributeConstant  = "shipyard.deployment_id"
	attemptsAttributeConstant      = "shipyard.poll_attempts"
	pollingStartedMessageConstant  = "Polling deployment status"
	pollStateMessageConstant       = "Deployment state observed"
	pollFetchFailedMessageConstant = "Deployment status check failed; retrying"
	pollSucceededMessageConstant   = "Deployment ready"
	pollFailedMessageConstant      = "Deployment reached a failure state"
	logFieldDeploymentIDConstant   = "deployment_id"
	logFieldStateConstant          = "state"
	logFieldAttemptConstant        = "attempt"
	logFieldTimeoutConstant        = "timeout"
	logFieldIntervalConstant       = "interval"
	logFieldElapsedConstant        = "elapsed"
)

var terminalFailureStates = map[string]struct{}{
	vercelapi.StateError:    {},
	vercelapi.StateCanceled: {},
	vercelapi.StateFailed:   {},
}

// PollOptions bound the polling loop. Non-positive values select the defaults.
type PollOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

// PollResult is the outcome of a successful poll.
type PollResult struct {
	Status     string
	URL        string
	Deployment vercelapi.Deployment
	Attempts   int
	Retries    int
}

// PollObserver receives the state observed by every status check.
type PollObserver interface {
	ObservePollAttempt(state string)
}

// ClassifyDeployment decides whether a status check ends polling.
// Fetch errors are transient; READY needs a URL; ERROR, CANCELED and FAILED are terminal failures.
func ClassifyDeployment(deploymentID string, deployment vercelapi.Deployment, fetchError error) (PollDecision, error) {
	if fetchError != nil {
		return PollDecisionRetry, nil
	}

	state := deployment.State()
	if state == vercelapi.StateReady {
		if len(strings.TrimSpace(deployment.URL)) == 0 {
			return PollDecisionFailed, DeploymentIntegrityError{DeploymentID: deploymentID}
		}
		return PollDecisionSucceeded, nil
	}
	if _, terminal := terminalFailureStates[state]; terminal {
		return PollDecisionFailed, DeploymentFailedError{DeploymentID: deploymentID, State: state, Reason: deployment.FailureReason()}
	}
	return PollDecisionRetry, nil
}

// PublicURL prefixes host-only deployment URLs with https://.
func PublicURL(deploymentURL string) string {
	trimmedURL := strings.TrimSpace(deploymentURL)
	if len(trimmedURL) == 0 || strings.HasPrefix(trimmedURL, httpsPrefixConstant) || strings.HasPrefix(trimmedURL, httpPrefixConstant) {
		return trimmedURL
	}
	return httpsPrefixConstant + trimmedURL
}

// PollDeploymentStatus checks the deployment at a fixed interval until it reaches a terminal state or the timeout elapses.
func (service *Service) PollDeploymentStatus(executionContext context.Context, deploymentID string, options PollOptions) (PollResult, error) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	interval := options.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	pollContext, span := service.tracer.Start(executionContext, pollSpanNameConstant,
		trace.WithAttributes(attribute.String(deploymentIDAttributeConstant, deploymentID)),
	)
	defer span.End()

	service.logger.Info(pollingStartedMessageConstant,
		zap.String(logFieldDeploymentIDConstant, deploymentID),
		zap.Duration(logFieldTimeoutConstant, timeout),
		zap.Duration(logFieldIntervalConstant, interval),
	)

	result, pollError := service.drivePolling(pollContext, deploymentID, timeout, interval)
	span.SetAttributes(attribute.Int(attemptsAttributeConstant, result.Attempts))
	if pollError != nil {
		span.RecordError(pollError)
		span.SetStatus(codes.Error, pollError.Error())
	}
	return result, pollError
}

func (service *Service) drivePolling(executionContext context.Context, deploymentID string, timeout time.Duration, interval time.Duration) (PollResult, error) {
	startTime := service.clock.Now()
	result := PollResult{}

	for {
		elapsed := service.clock.Now().Sub(startTime)
		if elapsed >= timeout {
			return result, PollingTimeoutError{DeploymentID: deploymentID, Elapsed: elapsed}
		}

		result.Attempts++
		deployment, fetchError := service.client.GetDeployment(executionContext, deploymentID)
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}

		decision, decisionError := ClassifyDeployment(deploymentID, deployment, fetchError)
		service.observePoll(deploymentID, deployment, fetchError, result.Attempts)

		switch decision {
		case PollDecisionSucceeded:
			result.Status = vercelapi.StateReady
			result.URL = PublicURL(deployment.URL)
			result.Deployment = deployment
			service.logger.Info(pollSucceededMessageConstant, zap.String(logFieldDeploymentIDConstant, deploymentID), zap.String(logFieldURLConstant, result.URL))
			return result, nil
		case PollDecisionFailed:
			result.Status = deployment.State()
			result.Deployment = deployment
			service.logger.Error(pollFailedMessageConstant, zap.String(logFieldDeploymentIDConstant, deploymentID), zap.Error(decisionError))
			return result, decisionError
		}

		result.Retries++
		if sleepError := service.clock.Sleep(executionContext, interval); sleepError != nil {
			return result, sleepError
		}
	}
}

func (service *Service) observePoll(deploymentID string, deployment vercelapi.Deployment, fetchError error, attempt int) {
	state := deployment.State()
	if fetchError != nil {
		state = fetchErrorStateConstant
		service.logger.Warn(pollFetchFailedMessageConstant,
			zap.String(logFieldDeploymentIDConstant, deploymentID),
			zap.Int(logFieldAttemptConstant, attempt),
			zap.Error(fetchError),
		)
	} else {
		service.logger.Info(pollStateMessageConstant,
			zap.String(logFieldDeploymentIDConstant, deploymentID),
			zap.String(logFieldStateConstant, state),
			zap.Int(logFieldAttemptConstant, attempt),
		)
	}
	if service.pollObserver != nil {
		service.pollObserver.ObservePollAttempt(state)
	}
}
