// Package services assembles the workflow services from configuration.
//
// Factory owns the process-wide collaborators (HTTP client, metrics, tracer
// provider, process runner) and builds a fresh service graph for every
// command invocation so that command-line overrides apply to it.
package services

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/bootstrap"
	"github.com/temirov/shipyard/internal/deployment"
	"github.com/temirov/shipyard/internal/execshell"
	"github.com/temirov/shipyard/internal/filesystem"
	"github.com/temirov/shipyard/internal/githubapi"
	"github.com/temirov/shipyard/internal/gitrepo"
	"github.com/temirov/shipyard/internal/publish"
	"github.com/temirov/shipyard/internal/restclient"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
	"github.com/temirov/shipyard/internal/vercelapi"
)

// RunIdentifierHeader carries the invocation identifier on every API request.
const RunIdentifierHeader = "X-Shipyard-Run-Id"

const (
	logFieldRunIDConstant     = "run_id"
	logFieldComponentConstant = "component"
	githubComponentConstant   = "github"
	vercelComponentConstant   = "vercel"
	gitComponentConstant      = "git"
)

// FactoryDependencies enumerates the shared collaborators. Zero values select production defaults.
type FactoryDependencies struct {
	HTTPClient     *http.Client
	Metrics        *telemetry.Metrics
	TracerProvider trace.TracerProvider
	CommandRunner  execshell.CommandRunner
	FileSystem     bootstrap.FileSystem
	Clock          deployment.Clock
	UserAgent      string
	RunIdentifier  string
}

// Factory builds workflow services.
type Factory struct {
	dependencies FactoryDependencies
}

// NewFactory constructs a Factory, filling unset dependencies with defaults.
func NewFactory(dependencies FactoryDependencies) *Factory {
	if dependencies.CommandRunner == nil {
		dependencies.CommandRunner = execshell.NewOSCommandRunner()
	}
	if dependencies.FileSystem == nil {
		dependencies.FileSystem = filesystem.OSFileSystem{}
	}
	if dependencies.Clock == nil {
		dependencies.Clock = deployment.SystemClock{}
	}
	if len(dependencies.RunIdentifier) == 0 {
		dependencies.RunIdentifier = uuid.NewString()
	}
	return &Factory{dependencies: dependencies}
}

// RunIdentifier returns the identifier shared by every service the factory builds.
func (factory *Factory) RunIdentifier() string {
	return factory.dependencies.RunIdentifier
}

// BootstrapService builds the repository bootstrap workflow.
func (factory *Factory) BootstrapService(configuration settings.Configuration, logger *zap.Logger) (*bootstrap.Service, error) {
	logger = factory.scopedLogger(logger)

	githubToken, tokenError := configuration.GitHubToken()
	if tokenError != nil {
		return nil, tokenError
	}

	transportOptions := append(factory.transportOptions(githubToken, logger.With(zap.String(logFieldComponentConstant, githubComponentConstant))), githubapi.TransportOptions()...)
	transport, transportError := restclient.NewClient(configuration.GitHubAPIURL(), transportOptions...)
	if transportError != nil {
		return nil, transportError
	}
	githubClient, clientError := githubapi.NewClient(transport)
	if clientError != nil {
		return nil, clientError
	}

	executorOptions := []execshell.ShellExecutorOption{}
	if factory.dependencies.Metrics != nil {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(execshell.NewOutcomeObserver(factory.dependencies.Metrics)))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger.With(zap.String(logFieldComponentConstant, gitComponentConstant)), factory.dependencies.CommandRunner, executorOptions...)
	if executorError != nil {
		return nil, executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}

	serviceDependencies := bootstrap.ServiceDependencies{
		Configuration:     configuration,
		RepositoryCreator: githubClient,
		GitManager:        repositoryManager,
		FileSystem:        factory.dependencies.FileSystem,
		Logger:            logger,
		TracerProvider:    factory.dependencies.TracerProvider,
	}
	if factory.dependencies.Metrics != nil {
		serviceDependencies.StepObserver = factory.dependencies.Metrics
	}
	return bootstrap.NewService(serviceDependencies)
}

// DeploymentService builds the project link and deployment workflow.
func (factory *Factory) DeploymentService(configuration settings.Configuration, logger *zap.Logger) (*deployment.Service, error) {
	logger = factory.scopedLogger(logger)

	vercelToken, tokenError := configuration.VercelToken()
	if tokenError != nil {
		return nil, tokenError
	}

	transportOptions := append(factory.transportOptions(vercelToken, logger.With(zap.String(logFieldComponentConstant, vercelComponentConstant))), vercelapi.TransportOptions()...)
	transport, transportError := restclient.NewClient(configuration.VercelAPIURL(), transportOptions...)
	if transportError != nil {
		return nil, transportError
	}
	vercelClient, clientError := vercelapi.NewClient(transport, configuration.VercelTeamID())
	if clientError != nil {
		return nil, clientError
	}

	serviceDependencies := deployment.ServiceDependencies{
		Configuration:  configuration,
		Client:         vercelClient,
		Clock:          factory.dependencies.Clock,
		Logger:         logger,
		TracerProvider: factory.dependencies.TracerProvider,
	}
	if factory.dependencies.Metrics != nil {
		serviceDependencies.PollObserver = factory.dependencies.Metrics
	}
	return deployment.NewService(serviceDependencies)
}

// PublishService builds the combined bootstrap and deployment workflow.
func (factory *Factory) PublishService(configuration settings.Configuration, logger *zap.Logger) (*publish.Service, error) {
	bootstrapService, bootstrapError := factory.BootstrapService(configuration, logger)
	deploymentService, deploymentError := factory.DeploymentService(configuration, logger)
	if joinedError := errors.Join(bootstrapError, deploymentError); joinedError != nil {
		return nil, joinedError
	}

	serviceDependencies := publish.ServiceDependencies{
		RepositoryPublisher: bootstrapService,
		Deployer:            deploymentService,
		Logger:              factory.resolveLogger(logger),
		TracerProvider:      factory.dependencies.TracerProvider,
		RunIdentifier:       factory.dependencies.RunIdentifier,
	}
	if factory.dependencies.Metrics != nil {
		serviceDependencies.WorkflowObserver = factory.dependencies.Metrics
	}
	return publish.NewService(serviceDependencies)
}

func (factory *Factory) transportOptions(token string, logger *zap.Logger) []restclient.Option {
	options := []restclient.Option{
		restclient.WithToken(token),
		restclient.WithLogger(logger),
		restclient.WithHeader(RunIdentifierHeader, factory.dependencies.RunIdentifier),
	}
	if len(factory.dependencies.UserAgent) > 0 {
		options = append(options, restclient.WithUserAgent(factory.dependencies.UserAgent))
	}
	if factory.dependencies.HTTPClient != nil {
		options = append(options, restclient.WithHTTPClient(factory.dependencies.HTTPClient))
	}
	if factory.dependencies.Metrics != nil {
		options = append(options, restclient.WithRequestObserver(factory.dependencies.Metrics))
	}
	return options
}

func (factory *Factory) scopedLogger(logger *zap.Logger) *zap.Logger {
	return factory.resolveLogger(logger).With(zap.String(logFieldRunIDConstant, factory.dependencies.RunIdentifier))
}

func (factory *Factory) resolveLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
