package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/bootstrap"
	"github.com/temirov/shipyard/internal/credentials"
	"github.com/temirov/shipyard/internal/deployment"
	"github.com/temirov/shipyard/internal/publish"
	"github.com/temirov/shipyard/internal/services"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
	"github.com/temirov/shipyard/internal/utils"
)

const (
	applicationNameConstant                 = "shipyard"
	applicationShortDescriptionConstant     = "Publish a local project to GitHub and deploy it on Vercel"
	applicationLongDescriptionConstant      = "shipyard creates a GitHub repository for a generated project, force-pushes the project into it, links the repository to a Vercel project and waits for the production deployment."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the shipyard version and exit."
	environmentPrefixConstant               = "SHIPYARD"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	workingDirectorySearchPathConstant      = "."
	userConfigurationSearchPathConstant     = "~/.shipyard"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	runIdentifierFieldConstant              = "run_id"
	metricsFileFieldConstant                = "metrics_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	tracingSetupErrorTemplateConstant       = "unable to configure tracing: %w"
	metricsSetupErrorTemplateConstant       = "unable to configure metrics: %w"
	metricsWriteFailedMessageConstant       = "unable to write metrics file"
	tracingShutdownFailedMessageConstant    = "unable to flush traces"
	versionOutputTemplateConstant           = "%s version: %s\n"
	userAgentTemplateConstant               = "%s/%s"
	developmentVersionConstant              = "dev"
)

// Version is the release version, set at build time with -ldflags "-X github.com/temirov/shipyard/cmd/cli.Version=...".
var Version = ""

// Application wires the Cobra root command, configuration loader, structured logger and telemetry.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	versionFlagValue       bool
	commandContextAccessor utils.CommandContextAccessor
	environmentLookup      credentials.EnvironmentLookup
	metrics                *telemetry.Metrics
	tracerProvider         trace.TracerProvider
	tracingShutdown        telemetry.ShutdownFunc
	serviceFactory         *services.Factory
	factoryDependencies    services.FactoryDependencies
	versionResolver        func(context.Context) string
	exitFunction           func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{workingDirectorySearchPathConstant, userConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(applicationNameConstant),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		environmentLookup:      os.LookupEnv,
		versionResolver:        resolveBuildVersion,
		exitFunction:           os.Exit,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if application.versionFlagValue {
				application.printVersion(command)
				application.exitFunction(0)
				return nil
			}
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	repoBuilder := bootstrap.CommandBuilder{
		LoggerProvider:        application.loggerProvider,
		ConfigurationProvider: application.settingsConfiguration,
		ServiceResolver:       application.resolveRepositoryWorkflow,
		WorkflowObserver:      application,
	}
	repoCommand, repoBuildError := repoBuilder.Build()
	if repoBuildError == nil {
		cobraCommand.AddCommand(repoCommand)
	}

	deployBuilder := deployment.CommandBuilder{
		LoggerProvider:        application.loggerProvider,
		ConfigurationProvider: application.settingsConfiguration,
		ServiceResolver:       application.resolveDeploymentWorkflow,
		WorkflowObserver:      application,
	}
	deployCommand, deployBuildError := deployBuilder.Build()
	if deployBuildError == nil {
		cobraCommand.AddCommand(deployCommand)
	}

	publishBuilder := publish.CommandBuilder{
		LoggerProvider:        application.loggerProvider,
		ConfigurationProvider: application.settingsConfiguration,
		ServiceResolver:       application.resolvePublishWorkflow,
	}
	publishCommand, publishBuildError := publishBuilder.Build()
	if publishBuildError == nil {
		cobraCommand.AddCommand(publishCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy, then flushes telemetry and the logger.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	application.finalizeTelemetry(application.rootCommand.Context())
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// ObserveWorkflow records a workflow outcome once telemetry is initialized.
func (application *Application) ObserveWorkflow(workflow string, outcome string) {
	application.metrics.ObserveWorkflow(workflow, outcome)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	executionContext := context.Background()
	if command != nil && command.Context() != nil {
		executionContext = command.Context()
	}
	if telemetryError := application.initializeTelemetry(executionContext); telemetryError != nil {
		return telemetryError
	}

	dependencies := application.factoryDependencies
	dependencies.Metrics = application.metrics
	dependencies.TracerProvider = application.tracerProvider
	dependencies.UserAgent = fmt.Sprintf(userAgentTemplateConstant, applicationNameConstant, application.version(executionContext))
	application.serviceFactory = services.NewFactory(dependencies)

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(runIdentifierFieldConstant, application.serviceFactory.RunIdentifier()),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(executionContext, application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithRunIdentifier(updatedContext, application.serviceFactory.RunIdentifier())
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) initializeTelemetry(executionContext context.Context) error {
	metrics, metricsError := telemetry.NewMetrics()
	if metricsError != nil {
		return fmt.Errorf(metricsSetupErrorTemplateConstant, metricsError)
	}
	application.metrics = metrics

	tracerProvider, shutdown, tracingError := telemetry.SetupTracing(executionContext, telemetry.TracingOptions{
		Endpoint:       application.configuration.Telemetry.OTLPEndpoint,
		ServiceName:    applicationNameConstant,
		ServiceVersion: application.version(executionContext),
	})
	if tracingError != nil {
		return fmt.Errorf(tracingSetupErrorTemplateConstant, tracingError)
	}
	application.tracerProvider = tracerProvider
	application.tracingShutdown = shutdown
	return nil
}

func (application *Application) finalizeTelemetry(executionContext context.Context) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	metricsFile := strings.TrimSpace(application.configuration.Telemetry.MetricsFile)
	if application.metrics != nil && len(metricsFile) > 0 {
		if writeError := application.metrics.WriteTextfile(metricsFile); writeError != nil {
			application.logger.Warn(metricsWriteFailedMessageConstant, zap.String(metricsFileFieldConstant, metricsFile), zap.Error(writeError))
		}
	}

	if application.tracingShutdown != nil {
		if shutdownError := application.tracingShutdown(executionContext); shutdownError != nil {
			application.logger.Warn(tracingShutdownFailedMessageConstant, zap.Error(shutdownError))
		}
		application.tracingShutdown = nil
	}
}

func (application *Application) loggerProvider() *zap.Logger {
	return application.logger
}

func (application *Application) settingsConfiguration() settings.Configuration {
	return application.configuration.Settings(application.environmentLookup)
}

func (application *Application) resolveRepositoryWorkflow(configuration settings.Configuration, logger *zap.Logger) (bootstrap.RepositoryWorkflow, error) {
	service, serviceError := application.factory().BootstrapService(configuration, logger)
	if serviceError != nil {
		return nil, serviceError
	}
	return service, nil
}

func (application *Application) resolveDeploymentWorkflow(configuration settings.Configuration, logger *zap.Logger) (deployment.Workflow, error) {
	service, serviceError := application.factory().DeploymentService(configuration, logger)
	if serviceError != nil {
		return nil, serviceError
	}
	return service, nil
}

func (application *Application) resolvePublishWorkflow(configuration settings.Configuration, logger *zap.Logger) (publish.Workflow, error) {
	service, serviceError := application.factory().PublishService(configuration, logger)
	if serviceError != nil {
		return nil, serviceError
	}
	return service, nil
}

func (application *Application) factory() *services.Factory {
	if application.serviceFactory == nil {
		application.serviceFactory = services.NewFactory(application.factoryDependencies)
	}
	return application.serviceFactory
}

func (application *Application) printVersion(command *cobra.Command) {
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.version(command.Context()))
}

func (application *Application) version(executionContext context.Context) string {
	if application.versionResolver == nil {
		return developmentVersionConstant
	}
	return application.versionResolver(executionContext)
}

func resolveBuildVersion(context.Context) string {
	if trimmedVersion := strings.TrimSpace(Version); len(trimmedVersion) > 0 {
		return trimmedVersion
	}
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 || buildInformation.Main.Version == "(devel)" {
		return developmentVersionConstant
	}
	return buildInformation.Main.Version
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
