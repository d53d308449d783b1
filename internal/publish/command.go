package publish

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/report"
	"github.com/temirov/shipyard/internal/settings"
)

const (
	commandUseConstant              = "publish <path> <repository-name>"
	commandShortDescriptionConstant = "Create a GitHub repository, push a directory to it and deploy it on Vercel"
	commandLongDescriptionConstant  = "publish creates the repository under the configured owner, force-pushes the directory to main, links the repository to a Vercel project and waits for the production deployment."
	argumentsErrorMessageConstant   = "publish requires a local path and a repository name"
	commandExecutionErrorTemplate   = "publish failed: %w"
	outputFlagNameConstant          = "output"
	outputFlagDescriptionConstant   = "Output format: text or yaml"
	timeoutFlagNameConstant         = "timeout"
	timeoutFlagDescriptionConstant  = "Maximum time to wait for the deployment (overrides deployment.poll_timeout)"
	intervalFlagNameConstant        = "interval"
	intervalFlagDescriptionConstant = "Delay between deployment status checks (overrides deployment.poll_interval)"
	requiredArgumentCountConstant   = 2
	serviceResolverMissingMessage   = "publish service resolver not configured"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved application configuration.
type ConfigurationProvider func() settings.Configuration

// Workflow is the publish operation driven by the command.
type Workflow interface {
	Publish(executionContext context.Context, localPath string, repositoryName string) (Result, error)
}

// ServiceResolver creates the publish workflow for a configuration.
type ServiceResolver func(configuration settings.Configuration, logger *zap.Logger) (Workflow, error)

// CommandBuilder assembles the publish command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	OutputWriter          io.Writer
}

// Build constructs the publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	publishCommand := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args: func(command *cobra.Command, arguments []string) error {
			if len(arguments) != requiredArgumentCountConstant {
				return errors.New(argumentsErrorMessageConstant)
			}
			return nil
		},
		RunE: builder.run,
	}

	publishCommand.Flags().String(outputFlagNameConstant, string(report.FormatText), outputFlagDescriptionConstant)
	publishCommand.Flags().Duration(timeoutFlagNameConstant, 0, timeoutFlagDescriptionConstant)
	publishCommand.Flags().Duration(intervalFlagNameConstant, 0, intervalFlagDescriptionConstant)

	return publishCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	outputValue, outputFlagError := command.Flags().GetString(outputFlagNameConstant)
	if outputFlagError != nil {
		return outputFlagError
	}
	outputFormat, formatError := report.ParseFormat(outputValue)
	if formatError != nil {
		return formatError
	}

	timeoutValue, timeoutFlagError := command.Flags().GetDuration(timeoutFlagNameConstant)
	if timeoutFlagError != nil {
		return timeoutFlagError
	}
	intervalValue, intervalFlagError := command.Flags().GetDuration(intervalFlagNameConstant)
	if intervalFlagError != nil {
		return intervalFlagError
	}

	configuration := builder.resolveConfiguration().WithPolling(timeoutValue, intervalValue)
	workflow, resolveError := builder.resolveWorkflow(configuration)
	if resolveError != nil {
		return resolveError
	}

	result, publishError := workflow.Publish(command.Context(), arguments[0], arguments[1])
	if publishError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, publishError)
	}

	return report.NewPrinter(builder.resolveOutputWriter(command), outputFormat).Print(result, result.TextLines()...)
}

func (builder *CommandBuilder) resolveWorkflow(configuration settings.Configuration) (Workflow, error) {
	if builder.ServiceResolver == nil {
		return nil, errors.New(serviceResolverMissingMessage)
	}
	return builder.ServiceResolver(configuration, builder.resolveLogger())
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

func (builder *CommandBuilder) resolveOutputWriter(command *cobra.Command) io.Writer {
	if builder.OutputWriter != nil {
		return builder.OutputWriter
	}
	return command.OutOrStdout()
}

