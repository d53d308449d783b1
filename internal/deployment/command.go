package deployment

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/report"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
)

const (
	commandUseConstant              = "deploy <repository-url>"
	commandShortDescriptionConstant = "Link a GitHub repository to a Vercel project and deploy it to production"
	commandLongDescriptionConstant  = "deploy ensures a Vercel project named after the repository exists and is linked to it, triggers a production deployment from main and waits until the deployment is READY, fails, or the timeout elapses."
	argumentsErrorMessageConstant   = "deploy requires exactly one repository URL"
	commandFailedErrorTemplate      = "deploy failed: %w"
	outputFlagNameConstant          = "output"
	outputFlagDescriptionConstant   = "Output format: text or yaml"
	timeoutFlagNameConstant         = "timeout"
	timeoutFlagDescriptionConstant  = "Maximum time to wait for the deployment (overrides deployment.poll_timeout)"
	intervalFlagNameConstant        = "interval"
	intervalFlagDescriptionConstant = "Delay between deployment status checks (overrides deployment.poll_interval)"
	serviceResolverMissingMessage   = "deployment service resolver not configured"
	runStatusTextTemplateConstant   = "Deployment %s: %s"
	runProjectTextTemplateConstant  = "Project %s (%s) linked to %s"
	runUnverifiedTextConstant       = "Deployment did not report READY before the timeout; the URL is the expected project address."
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved application configuration.
type ConfigurationProvider func() settings.Configuration

// Workflow is the deployment operation driven by the command.
type Workflow interface {
	CreateAndDeploy(executionContext context.Context, repositoryURL string) (Run, error)
}

// ServiceResolver creates the deployment workflow for a configuration.
type ServiceResolver func(configuration settings.Configuration, logger *zap.Logger) (Workflow, error)

// WorkflowObserver records workflow outcomes.
type WorkflowObserver interface {
	ObserveWorkflow(workflow string, outcome string)
}

// CommandBuilder assembles the deploy command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	WorkflowObserver      WorkflowObserver
	OutputWriter          io.Writer
}

// Build constructs the deploy command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	deployCommand := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args: func(_ *cobra.Command, arguments []string) error {
			if len(arguments) != 1 {
				return errors.New(argumentsErrorMessageConstant)
			}
			return nil
		},
		RunE: builder.run,
	}

	deployCommand.Flags().String(outputFlagNameConstant, string(report.FormatText), outputFlagDescriptionConstant)
	deployCommand.Flags().Duration(timeoutFlagNameConstant, 0, timeoutFlagDescriptionConstant)
	deployCommand.Flags().Duration(intervalFlagNameConstant, 0, intervalFlagDescriptionConstant)

	return deployCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) (runError error) {
	defer func() { builder.observe(runError) }()

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

	if builder.ServiceResolver == nil {
		return errors.New(serviceResolverMissingMessage)
	}
	configuration := builder.resolveConfiguration().WithPolling(timeoutValue, intervalValue)
	workflow, resolveError := builder.ServiceResolver(configuration, builder.resolveLogger())
	if resolveError != nil {
		return resolveError
	}

	run, deployError := workflow.CreateAndDeploy(command.Context(), arguments[0])
	if deployError != nil {
		return fmt.Errorf(commandFailedErrorTemplate, deployError)
	}

	outputWriter := builder.OutputWriter
	if outputWriter == nil {
		outputWriter = command.OutOrStdout()
	}
	return report.NewPrinter(outputWriter, outputFormat).Print(run, run.TextLines()...)
}

// TextLines renders the run for terminal output.
func (run Run) TextLines() []string {
	lines := []string{
		fmt.Sprintf(runProjectTextTemplateConstant, run.ProjectName, run.ProjectID, run.Repository),
		fmt.Sprintf(runStatusTextTemplateConstant, run.Status, run.URL),
	}
	if !run.Verified {
		lines = append(lines, runUnverifiedTextConstant)
	}
	return lines
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

func (builder *CommandBuilder) observe(runError error) {
	if builder.WorkflowObserver == nil {
		return
	}
	builder.WorkflowObserver.ObserveWorkflow(WorkflowName, telemetry.OutcomeLabel(runError))
}
