package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/githubapi"
	"github.com/temirov/shipyard/internal/report"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
)

const (
	repoCommandUseConstant                = "repo"
	repoCommandShortDescriptionConstant   = "Create GitHub repositories and push working trees"
	repoCommandLongDescriptionConstant    = "repo groups the repository bootstrap operations: creating the remote repository and force-pushing a directory to it."
	createCommandUseConstant              = "create <repository-name>"
	createCommandShortDescriptionConstant = "Create a public GitHub repository under the configured owner"
	pushCommandUseConstant                = "push <path> <repository-name>"
	pushCommandShortDescriptionConstant   = "Reinitialize git metadata in a directory and force-push it to main"
	createArgumentsErrorMessageConstant   = "repo create requires a repository name"
	pushArgumentsErrorMessageConstant     = "repo push requires a local path and a repository name"
	createFailedErrorTemplateConstant     = "repo create failed: %w"
	pushFailedErrorTemplateConstant       = "repo push failed: %w"
	outputFlagNameConstant                = "output"
	outputFlagDescriptionConstant         = "Output format: text or yaml"
	serviceResolverMissingMessage         = "repository service resolver not configured"
	createdRepositoryTextTemplate         = "Repository: %s"
	pushedBranchTextTemplate              = "Pushed branch %s (new commit: %t, remote %s, branch %s)"
	createWorkflowNameConstant            = "repo-create"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved application configuration.
type ConfigurationProvider func() settings.Configuration

// RepositoryWorkflow is the bootstrap surface driven by the repo commands.
type RepositoryWorkflow interface {
	CreateRemote(executionContext context.Context, repositoryName string) (githubapi.Repository, error)
	BootstrapAndPush(executionContext context.Context, localPath string, repositoryName string) (BootstrapResult, error)
}

// ServiceResolver creates the repository workflow for a configuration.
type ServiceResolver func(configuration settings.Configuration, logger *zap.Logger) (RepositoryWorkflow, error)

// WorkflowObserver records workflow outcomes.
type WorkflowObserver interface {
	ObserveWorkflow(workflow string, outcome string)
}

// CommandBuilder assembles the repo command hierarchy.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	WorkflowObserver      WorkflowObserver
	OutputWriter          io.Writer
}

// Build constructs the repo command with its create and push subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	repoCommand := &cobra.Command{
		Use:   repoCommandUseConstant,
		Short: repoCommandShortDescriptionConstant,
		Long:  repoCommandLongDescriptionConstant,
	}

	createCommand := &cobra.Command{
		Use:   createCommandUseConstant,
		Short: createCommandShortDescriptionConstant,
		Args:  exactArguments(1, createArgumentsErrorMessageConstant),
		RunE:  builder.runCreate,
	}
	createCommand.Flags().String(outputFlagNameConstant, string(report.FormatText), outputFlagDescriptionConstant)

	pushCommand := &cobra.Command{
		Use:   pushCommandUseConstant,
		Short: pushCommandShortDescriptionConstant,
		Args:  exactArguments(2, pushArgumentsErrorMessageConstant),
		RunE:  builder.runPush,
	}
	pushCommand.Flags().String(outputFlagNameConstant, string(report.FormatText), outputFlagDescriptionConstant)

	repoCommand.AddCommand(createCommand, pushCommand)

	return repoCommand, nil
}

func (builder *CommandBuilder) runCreate(command *cobra.Command, arguments []string) (runError error) {
	defer func() { builder.observe(createWorkflowNameConstant, runError) }()

	printer, printerError := builder.resolvePrinter(command)
	if printerError != nil {
		return printerError
	}
	workflow, resolveError := builder.resolveWorkflow()
	if resolveError != nil {
		return resolveError
	}

	repository, createError := workflow.CreateRemote(command.Context(), arguments[0])
	if createError != nil {
		return fmt.Errorf(createFailedErrorTemplateConstant, createError)
	}

	return printer.Print(repository, fmt.Sprintf(createdRepositoryTextTemplate, repository.HTMLURL))
}

func (builder *CommandBuilder) runPush(command *cobra.Command, arguments []string) (runError error) {
	defer func() { builder.observe(WorkflowName, runError) }()

	printer, printerError := builder.resolvePrinter(command)
	if printerError != nil {
		return printerError
	}
	workflow, resolveError := builder.resolveWorkflow()
	if resolveError != nil {
		return resolveError
	}

	result, pushError := workflow.BootstrapAndPush(command.Context(), arguments[0], arguments[1])
	if pushError != nil {
		return fmt.Errorf(pushFailedErrorTemplateConstant, pushError)
	}

	return printer.Print(result, fmt.Sprintf(pushedBranchTextTemplate, result.Branch, result.Committed, result.RemoteAction, result.BranchAction))
}

func (builder *CommandBuilder) resolvePrinter(command *cobra.Command) (*report.Printer, error) {
	outputValue, outputFlagError := command.Flags().GetString(outputFlagNameConstant)
	if outputFlagError != nil {
		return nil, outputFlagError
	}
	outputFormat, formatError := report.ParseFormat(outputValue)
	if formatError != nil {
		return nil, formatError
	}

	outputWriter := builder.OutputWriter
	if outputWriter == nil {
		outputWriter = command.OutOrStdout()
	}
	return report.NewPrinter(outputWriter, outputFormat), nil
}

func (builder *CommandBuilder) resolveWorkflow() (RepositoryWorkflow, error) {
	if builder.ServiceResolver == nil {
		return nil, errors.New(serviceResolverMissingMessage)
	}
	return builder.ServiceResolver(builder.resolveConfiguration(), builder.resolveLogger())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() settings.Configuration {
	if builder.ConfigurationProvider == nil {
		return settings.New(settings.Source{}, nil)
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) observe(workflow string, runError error) {
	if builder.WorkflowObserver == nil {
		return
	}
	builder.WorkflowObserver.ObserveWorkflow(workflow, telemetry.OutcomeLabel(runError))
}

func exactArguments(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, arguments []string) error {
		if len(arguments) != count {
			return errors.New(message)
		}
		return nil
	}
}
