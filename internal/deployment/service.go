package deployment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/gitrepo"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
	"github.com/temirov/shipyard/internal/vercelapi"
)

// Run statuses reported by CreateAndDeploy.
const (
	StatusReady      = vercelapi.StateReady
	StatusUnverified = "UNVERIFIED"
)

const (
	// WorkflowName labels deployment metrics and spans.
	WorkflowName = "deploy"
)

const (
	unverifiedURLTemplateConstant     = "https://%s.vercel.app"
	ensureProjectSpanNameConstant     = "deployment.ensure_project"
	triggerSpanNameConstant           = "deployment.trigger"
	projectAttributeConstant          = "shipyard.project"
	repositoryAttributeConstant       = "shipyard.repository"
	logFieldProjectConstant           = "project"
	logFieldProjectIDConstant         = "project_id"
	logFieldRepositoryConstant        = "repository"
	logFieldRepoIDConstant            = "repo_id"
	logFieldURLConstant               = "url"
	logFieldLinkConstant              = "link"
	projectFoundMessageConstant       = "Project exists"
	projectMissingMessageConstant     = "Project not found; creating"
	projectCreatedMessageConstant     = "Project created"
	projectConflictMessageConstant    = "Project name already taken; reusing existing project"
	projectMissingRepoIDMessage       = "Project has no repository identifier; deployment will fail unless it is linked"
	linkingProjectMessageConstant     = "Linking project to repository"
	projectLinkedMessageConstant      = "Project linked"
	triggeringDeploymentMessage       = "Triggering production deployment"
	deploymentTriggeredMessage        = "Deployment triggered"
	unverifiedFallbackMessageConstant = "Deployment polling timed out; reporting unverified project URL"
)

// PlatformClient is the deployment-host API surface the orchestrator uses.
type PlatformClient interface {
	GetProject(executionContext context.Context, nameOrID string) (vercelapi.Project, error)
	CreateProject(executionContext context.Context, request vercelapi.CreateProjectRequest) (vercelapi.Project, error)
	LinkProject(executionContext context.Context, projectID string, request vercelapi.LinkProjectRequest) (vercelapi.ProjectLink, error)
	CreateDeployment(executionContext context.Context, request vercelapi.CreateDeploymentRequest) (vercelapi.Deployment, error)
	GetDeployment(executionContext context.Context, deploymentID string) (vercelapi.Deployment, error)
}

// ServiceDependencies enumerates the collaborators of Service.
type ServiceDependencies struct {
	Configuration  settings.Configuration
	Client         PlatformClient
	Clock          Clock
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	PollObserver   PollObserver
}

// ProjectBinding is a project together with the repository identifier deployments reference.
type ProjectBinding struct {
	ProjectID   string
	ProjectName string
	FullRepo    string
	RepoID      vercelapi.RepositoryID
	Created     bool
	Linked      bool
}

// Run is the outcome of CreateAndDeploy.
type Run struct {
	ProjectName  string `yaml:"project"`
	ProjectID    string `yaml:"project_id"`
	Repository   string `yaml:"repository"`
	RepoID       string `yaml:"repo_id"`
	DeploymentID string `yaml:"deployment_id"`
	Status       string `yaml:"status"`
	URL          string `yaml:"url"`
	Verified     bool   `yaml:"verified"`
	Attempts     int    `yaml:"poll_attempts"`
}

// Service orchestrates project setup and deployment.
type Service struct {
	configuration settings.Configuration
	client        PlatformClient
	clock         Clock
	logger        *zap.Logger
	tracer        trace.Tracer
	pollObserver  PollObserver
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Client == nil {
		return nil, ErrPlatformClientNotConfigured
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		configuration: dependencies.Configuration,
		client:        dependencies.Client,
		clock:         clock,
		logger:        logger,
		tracer:        telemetry.Tracer(dependencies.TracerProvider),
		pollObserver:  dependencies.PollObserver,
	}, nil
}

// ResolveRepositoryCoordinates extracts owner and repository from a repository URL on host.
func ResolveRepositoryCoordinates(repositoryURL string, host string) (gitrepo.RepositoryCoordinates, error) {
	coordinates, parseError := gitrepo.ParseRepositoryCoordinates(repositoryURL, host)
	if parseError != nil {
		var remoteURLError gitrepo.RemoteURLParseError
		if errors.As(parseError, &remoteURLError) {
			return gitrepo.RepositoryCoordinates{}, InvalidInputError{Input: repositoryURL, Message: remoteURLError.Message}
		}
		return gitrepo.RepositoryCoordinates{}, InvalidInputError{Input: repositoryURL, Message: parseError.Error()}
	}
	return coordinates, nil
}

// EnsureProject finds or creates the project and makes sure it is linked to fullRepo.
// An empty RepoID in the result means the platform did not report one; TriggerDeployment rejects it.
func (service *Service) EnsureProject(executionContext context.Context, projectName string, fullRepo string) (ProjectBinding, error) {
	spanContext, span := service.tracer.Start(executionContext, ensureProjectSpanNameConstant,
		trace.WithAttributes(
			attribute.String(projectAttributeConstant, projectName),
			attribute.String(repositoryAttributeConstant, fullRepo),
		),
	)
	defer span.End()

	binding, ensureError := service.ensureProject(spanContext, projectName, fullRepo)
	if ensureError != nil {
		span.RecordError(ensureError)
		span.SetStatus(codes.Error, ensureError.Error())
	}
	return binding, ensureError
}

func (service *Service) ensureProject(executionContext context.Context, projectName string, fullRepo string) (ProjectBinding, error) {
	binding := ProjectBinding{ProjectName: projectName, FullRepo: fullRepo}

	project, lookupError := service.client.GetProject(executionContext, projectName)
	if lookupError != nil {
		if !vercelapi.IsNotFound(lookupError) {
			return ProjectBinding{}, lookupError
		}
		service.logger.Info(projectMissingMessageConstant, zap.String(logFieldProjectConstant, projectName))
		return service.createProject(executionContext, binding)
	}

	return service.reuseProject(executionContext, binding, project)
}

func (service *Service) reuseProject(executionContext context.Context, binding ProjectBinding, project vercelapi.Project) (ProjectBinding, error) {
	binding.ProjectID = project.ID
	service.logger.Info(projectFoundMessageConstant,
		zap.String(logFieldProjectConstant, binding.ProjectName),
		zap.String(logFieldProjectIDConstant, project.ID),
	)
	if project.Link.LinkedToGitHub() {
		binding.RepoID = project.Link.RepoID
		return binding, nil
	}
	return service.linkProject(executionContext, binding)
}

func (service *Service) createProject(executionContext context.Context, binding ProjectBinding) (ProjectBinding, error) {
	project, createError := service.client.CreateProject(executionContext, vercelapi.CreateProjectRequest{
		Name:      binding.ProjectName,
		Framework: service.configuration.VercelFramework(),
		GitRepository: &vercelapi.GitRepository{
			Type: vercelapi.GitProviderGitHub,
			Repo: binding.FullRepo,
		},
	})
	if createError != nil {
		if !vercelapi.IsConflict(createError) {
			return ProjectBinding{}, createError
		}
		// Created concurrently under the same name: fetch it and reuse it.
		service.logger.Info(projectConflictMessageConstant, zap.String(logFieldProjectConstant, binding.ProjectName))
		existingProject, lookupError := service.client.GetProject(executionContext, binding.ProjectName)
		if lookupError != nil {
			return ProjectBinding{}, errors.Join(createError, lookupError)
		}
		return service.reuseProject(executionContext, binding, existingProject)
	}

	binding.ProjectID = project.ID
	binding.Created = true
	if project.Link.LinkedToGitHub() {
		binding.RepoID = project.Link.RepoID
		service.logger.Info(projectCreatedMessageConstant,
			zap.String(logFieldProjectIDConstant, project.ID),
			zap.String(logFieldRepoIDConstant, binding.RepoID.String()),
		)
		return binding, nil
	}

	service.logger.Warn(projectMissingRepoIDMessage,
		zap.String(logFieldProjectIDConstant, project.ID),
		zap.Any(logFieldLinkConstant, project.Link),
	)
	return binding, nil
}

func (service *Service) linkProject(executionContext context.Context, binding ProjectBinding) (ProjectBinding, error) {
	service.logger.Info(linkingProjectMessageConstant,
		zap.String(logFieldProjectIDConstant, binding.ProjectID),
		zap.String(logFieldRepositoryConstant, binding.FullRepo),
	)
	link, linkError := service.client.LinkProject(executionContext, binding.ProjectID, vercelapi.LinkProjectRequest{
		Type:             vercelapi.GitProviderGitHub,
		Repo:             binding.FullRepo,
		ProductionBranch: vercelapi.ProductionBranchMain,
	})
	if linkError != nil {
		return ProjectBinding{}, linkError
	}

	binding.Linked = true
	binding.RepoID = link.RepoID
	if binding.RepoID.Empty() {
		service.logger.Warn(projectMissingRepoIDMessage, zap.String(logFieldProjectIDConstant, binding.ProjectID))
		return binding, nil
	}
	service.logger.Info(projectLinkedMessageConstant, zap.String(logFieldRepoIDConstant, binding.RepoID.String()))
	return binding, nil
}

// TriggerDeployment starts a production deployment of main. It fails with LinkingError when the binding has no RepoID.
func (service *Service) TriggerDeployment(executionContext context.Context, binding ProjectBinding) (vercelapi.Deployment, error) {
	if binding.RepoID.Empty() {
		return vercelapi.Deployment{}, LinkingError{Project: binding.ProjectName}
	}

	spanContext, span := service.tracer.Start(executionContext, triggerSpanNameConstant,
		trace.WithAttributes(attribute.String(projectAttributeConstant, binding.ProjectName)),
	)
	defer span.End()

	service.logger.Info(triggeringDeploymentMessage,
		zap.String(logFieldProjectConstant, binding.ProjectName),
		zap.String(logFieldRepoIDConstant, binding.RepoID.String()),
	)
	deployment, createError := service.client.CreateDeployment(spanContext, vercelapi.CreateDeploymentRequest{
		Name:   binding.ProjectName,
		Target: vercelapi.TargetProduction,
		GitSource: vercelapi.GitSource{
			Type:   vercelapi.GitProviderGitHub,
			RepoID: binding.RepoID,
			Ref:    vercelapi.ProductionBranchMain,
		},
	})
	if createError != nil {
		span.RecordError(createError)
		span.SetStatus(codes.Error, createError.Error())
		return vercelapi.Deployment{}, createError
	}
	if len(strings.TrimSpace(deployment.ID)) == 0 {
		return vercelapi.Deployment{}, ErrDeploymentIDMissing
	}

	service.logger.Info(deploymentTriggeredMessage,
		zap.String(logFieldDeploymentIDConstant, deployment.ID),
		zap.String(logFieldURLConstant, deployment.URL),
	)
	return deployment, nil
}

// CreateAndDeploy runs the whole orchestration for repositoryURL.
// A polling timeout yields a Run with StatusUnverified and the derived project URL; other failures are returned.
func (service *Service) CreateAndDeploy(executionContext context.Context, repositoryURL string) (Run, error) {
	coordinates, resolveError := ResolveRepositoryCoordinates(repositoryURL, service.configuration.GitHubHost())
	if resolveError != nil {
		return Run{}, resolveError
	}

	run := Run{ProjectName: coordinates.Repository, Repository: coordinates.FullName()}

	binding, ensureError := service.EnsureProject(executionContext, run.ProjectName, run.Repository)
	if ensureError != nil {
		return run, ensureError
	}
	run.ProjectID = binding.ProjectID
	run.RepoID = binding.RepoID.String()

	deployment, triggerError := service.TriggerDeployment(executionContext, binding)
	if triggerError != nil {
		return run, triggerError
	}
	run.DeploymentID = deployment.ID

	pollResult, pollError := service.PollDeploymentStatus(executionContext, deployment.ID, PollOptions{
		Timeout:  service.configuration.PollTimeout(),
		Interval: service.configuration.PollInterval(),
	})
	run.Attempts = pollResult.Attempts
	if pollError != nil {
		var timeoutError PollingTimeoutError
		if !errors.As(pollError, &timeoutError) {
			run.Status = pollResult.Status
			return run, pollError
		}
		run.Status = StatusUnverified
		run.URL = fmt.Sprintf(unverifiedURLTemplateConstant, run.ProjectName)
		run.Verified = false
		service.logger.Warn(unverifiedFallbackMessageConstant,
			zap.String(logFieldDeploymentIDConstant, deployment.ID),
			zap.String(logFieldURLConstant, run.URL),
			zap.Duration(logFieldElapsedConstant, timeoutError.Elapsed),
		)
		return run, nil
	}

	run.Status = pollResult.Status
	run.URL = pollResult.URL
	run.Verified = true
	return run, nil
}
