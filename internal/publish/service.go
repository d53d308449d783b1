package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/bootstrap"
	"github.com/temirov/shipyard/internal/deployment"
	"github.com/temirov/shipyard/internal/telemetry"
)

// WorkflowName labels publish metrics and spans.
const WorkflowName = "publish"

const (
	publishSpanNameConstant            = "publish"
	runIDAttributeConstant             = "shipyard.run_id"
	repositoryAttributeConstant        = "shipyard.repository"
	logFieldRunIDConstant              = "run_id"
	logFieldRepositoryConstant         = "repository"
	logFieldPathConstant               = "path"
	logFieldRepositoryURLConstant      = "repository_url"
	logFieldStatusConstant             = "status"
	logFieldURLConstant                = "url"
	publishStartedMessageConstant      = "Publishing project"
	repositoryPublishedMessageConstant = "Repository published; starting deployment"
	publishCompletedMessageConstant    = "Project published"
	repositoryPublishErrorTemplate     = "publish repository %s: %w"
	deploymentErrorTemplateConstant    = "deploy repository %s: %w"
	repositoryPublisherMissingMessage  = "repository publisher not configured"
	deployerMissingMessageConstant     = "deployer not configured"
	textRepositoryLineTemplateConstant = "Repository: %s"
	textPushLineTemplateConstant       = "Pushed branch %s (new commit: %t, remote %s)"
	textDeploymentLineTemplateConstant = "Deployment %s: %s"
	textUnverifiedLineConstant         = "Deployment did not report READY before the timeout; the URL is the expected project address."
)

var (
	// ErrRepositoryPublisherNotConfigured indicates a missing repository workflow.
	ErrRepositoryPublisherNotConfigured = errors.New(repositoryPublisherMissingMessage)
	// ErrDeployerNotConfigured indicates a missing deployment workflow.
	ErrDeployerNotConfigured = errors.New(deployerMissingMessageConstant)
)

// RepositoryPublisher creates a remote repository and pushes a working tree into it.
type RepositoryPublisher interface {
	Publish(executionContext context.Context, localPath string, repositoryName string) (bootstrap.Result, error)
}

// Deployer deploys a hosted repository.
type Deployer interface {
	CreateAndDeploy(executionContext context.Context, repositoryURL string) (deployment.Run, error)
}

// WorkflowObserver records workflow outcomes.
type WorkflowObserver interface {
	ObserveWorkflow(workflow string, outcome string)
}

// ServiceDependencies enumerates the collaborators of Service.
type ServiceDependencies struct {
	RepositoryPublisher RepositoryPublisher
	Deployer            Deployer
	Logger              *zap.Logger
	TracerProvider      trace.TracerProvider
	WorkflowObserver    WorkflowObserver
	RunIdentifier       string
}

// Result combines the outcome of both workflows.
type Result struct {
	RunID      string           `yaml:"run_id"`
	Repository bootstrap.Result `yaml:"repository"`
	Deployment deployment.Run   `yaml:"deployment"`
}

// TextLines renders the result for terminal output.
func (result Result) TextLines() []string {
	lines := []string{
		fmt.Sprintf(textRepositoryLineTemplateConstant, result.Repository.URL),
		fmt.Sprintf(textPushLineTemplateConstant, result.Repository.Push.Branch, result.Repository.Push.Committed, result.Repository.Push.RemoteAction),
		fmt.Sprintf(textDeploymentLineTemplateConstant, result.Deployment.Status, result.Deployment.URL),
	}
	if !result.Deployment.Verified {
		lines = append(lines, textUnverifiedLineConstant)
	}
	return lines
}

// Service runs the bootstrap workflow followed by the deployment workflow.
type Service struct {
	repositoryPublisher RepositoryPublisher
	deployer            Deployer
	logger              *zap.Logger
	tracer              trace.Tracer
	workflowObserver    WorkflowObserver
	runIdentifier       string
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryPublisher == nil {
		return nil, ErrRepositoryPublisherNotConfigured
	}
	if dependencies.Deployer == nil {
		return nil, ErrDeployerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runIdentifier := dependencies.RunIdentifier
	if len(runIdentifier) == 0 {
		runIdentifier = uuid.NewString()
	}

	return &Service{
		repositoryPublisher: dependencies.RepositoryPublisher,
		deployer:            dependencies.Deployer,
		logger:              logger.With(zap.String(logFieldRunIDConstant, runIdentifier)),
		tracer:              telemetry.Tracer(dependencies.TracerProvider),
		workflowObserver:    dependencies.WorkflowObserver,
		runIdentifier:       runIdentifier,
	}, nil
}

// Publish creates and pushes the repository, then deploys it.
// The returned Result carries whatever completed before a failure.
func (service *Service) Publish(executionContext context.Context, localPath string, repositoryName string) (result Result, publishError error) {
	spanContext, span := service.tracer.Start(executionContext, publishSpanNameConstant, trace.WithAttributes(
		attribute.String(runIDAttributeConstant, service.runIdentifier),
		attribute.String(repositoryAttributeConstant, repositoryName),
	))
	defer func() {
		if publishError != nil {
			span.RecordError(publishError)
			span.SetStatus(codes.Error, publishError.Error())
		}
		span.End()
		service.observe(publishError)
	}()

	result.RunID = service.runIdentifier
	service.logger.Info(publishStartedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryName),
		zap.String(logFieldPathConstant, localPath),
	)

	repositoryResult, repositoryError := service.repositoryPublisher.Publish(spanContext, localPath, repositoryName)
	result.Repository = repositoryResult
	if repositoryError != nil {
		return result, fmt.Errorf(repositoryPublishErrorTemplate, repositoryName, repositoryError)
	}
	service.logger.Info(repositoryPublishedMessageConstant, zap.String(logFieldRepositoryURLConstant, repositoryResult.URL))

	run, deployError := service.deployer.CreateAndDeploy(spanContext, repositoryResult.URL)
	result.Deployment = run
	if deployError != nil {
		return result, fmt.Errorf(deploymentErrorTemplateConstant, repositoryResult.URL, deployError)
	}

	service.logger.Info(publishCompletedMessageConstant,
		zap.String(logFieldRepositoryURLConstant, repositoryResult.URL),
		zap.String(logFieldStatusConstant, run.Status),
		zap.String(logFieldURLConstant, run.URL),
	)
	return result, nil
}

func (service *Service) observe(publishError error) {
	if service.workflowObserver == nil {
		return
	}
	service.workflowObserver.ObserveWorkflow(WorkflowName, telemetry.OutcomeLabel(publishError))
}
