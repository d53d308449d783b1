package execshell

import (
	"fmt"
	"regexp"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	redactedCredentialsReplacementConstant  = "${scheme}***@"
)

const (
	gitInitSubcommandNameConstant     = "init"
	gitConfigSubcommandNameConstant   = "config"
	gitAddSubcommandNameConstant      = "add"
	gitStatusSubcommandNameConstant   = "status"
	gitCommitSubcommandNameConstant   = "commit"
	gitRemoteSubcommandNameConstant   = "remote"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitPushSubcommandNameConstant     = "push"
)

const (
	gitInitStartTemplateConstant          = "Initializing repository in %s"
	gitInitSuccessTemplateConstant        = "Initialized repository in %s"
	gitInitFailureTemplateConstant        = "Failed to initialize repository in %s (exit code %d%s)"
	gitConfigStartTemplateConstant        = "Configuring %s in %s"
	gitConfigSuccessTemplateConstant      = "Configured %s in %s"
	gitConfigFailureTemplateConstant      = "Failed to configure %s in %s (exit code %d%s)"
	gitAddStartTemplateConstant           = "Staging %s in %s"
	gitAddSuccessTemplateConstant         = "Staged %s in %s"
	gitAddFailureTemplateConstant         = "Failed to stage %s in %s (exit code %d%s)"
	gitStatusStartTemplateConstant        = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant      = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant      = "Failed to review working tree status in %s (exit code %d%s)"
	gitCommitStartTemplateConstant        = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant      = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant      = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitRemoteStartTemplateConstant        = "Running remote %s in %s"
	gitRemoteSuccessTemplateConstant      = "Completed remote %s in %s"
	gitRemoteFailureTemplateConstant      = "Failed remote %s in %s (exit code %d%s)"
	gitCheckoutStartTemplateConstant      = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant    = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant    = "Failed to switch %s to branch %s (exit code %d%s)"
	gitPushStartTemplateConstant          = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant        = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant        = "Failed to push %s to %s from %s (exit code %d%s)"
	gitMessageFlagConstant                = "-m"
	gitFlagPrefixConstant                 = "-"
	gitDefaultPushTargetLabelConstant     = "upstream"
	gitDefaultCheckoutTargetLabelConstant = "requested branch"
)

var credentialPattern = regexp.MustCompile(`(?P<scheme>[a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s]+@`)

// RedactCredentials masks user information embedded in URLs, such as access tokens in push URLs.
func RedactCredentials(text string) string {
	return credentialPattern.ReplaceAllString(text, redactedCredentialsReplacementConstant)
}

// CommandMessageFormatter builds human-readable descriptions of command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage describes a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if stage == messageStageExecutionFailure {
		failureMessage := unknownFailureMessageConstant
		if failure != nil {
			failureMessage = RedactCredentials(failure.Error())
		}
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
	}

	if command.Name == CommandGit && len(command.Details.Arguments) > 0 {
		if message, described := formatter.describeGitMessage(command, result, stage); described {
			return message
		}
	}

	return formatter.buildGenericMessage(command, result, stage)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, stage messageStage) (string, bool) {
	arguments := command.Details.Arguments
	workingDirectory := formatter.formatWorkingDirectory(command)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)

	switch arguments[0] {
	case gitInitSubcommandNameConstant:
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitInitStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitInitSuccessTemplateConstant, workingDirectory),
			fmt.Sprintf(gitInitFailureTemplateConstant, workingDirectory, result.ExitCode, standardErrorSuffix),
		), true
	case gitConfigSubcommandNameConstant:
		configurationKey := formatter.argumentAt(arguments, 1)
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitConfigStartTemplateConstant, configurationKey, workingDirectory),
			fmt.Sprintf(gitConfigSuccessTemplateConstant, configurationKey, workingDirectory),
			fmt.Sprintf(gitConfigFailureTemplateConstant, configurationKey, workingDirectory, result.ExitCode, standardErrorSuffix),
		), true
	case gitAddSubcommandNameConstant:
		target := strings.Join(arguments[1:], commandArgumentsJoinSeparatorConstant)
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitAddStartTemplateConstant, target, workingDirectory),
			fmt.Sprintf(gitAddSuccessTemplateConstant, target, workingDirectory),
			fmt.Sprintf(gitAddFailureTemplateConstant, target, workingDirectory, result.ExitCode, standardErrorSuffix),
		), true
	case gitStatusSubcommandNameConstant:
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitStatusStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitStatusSuccessTemplateConstant, workingDirectory),
			fmt.Sprintf(gitStatusFailureTemplateConstant, workingDirectory, result.ExitCode, standardErrorSuffix),
		), true
	case gitCommitSubcommandNameConstant:
		commitMessage := formatter.flagValue(arguments, gitMessageFlagConstant)
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitCommitStartTemplateConstant, workingDirectory, commitMessage),
			fmt.Sprintf(gitCommitSuccessTemplateConstant, workingDirectory, commitMessage),
			fmt.Sprintf(gitCommitFailureTemplateConstant, workingDirectory, commitMessage, result.ExitCode, standardErrorSuffix),
		), true
	case gitRemoteSubcommandNameConstant:
		remoteAction := RedactCredentials(strings.Join(arguments[1:], commandArgumentsJoinSeparatorConstant))
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitRemoteStartTemplateConstant, remoteAction, workingDirectory),
			fmt.Sprintf(gitRemoteSuccessTemplateConstant, remoteAction, workingDirectory),
			fmt.Sprintf(gitRemoteFailureTemplateConstant, remoteAction, workingDirectory, result.ExitCode, standardErrorSuffix),
		), true
	case gitCheckoutSubcommandNameConstant:
		branchName := formatter.lastPositionalArgument(arguments[1:], gitDefaultCheckoutTargetLabelConstant)
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName),
			fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName),
			fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, standardErrorSuffix),
		), true
	case gitPushSubcommandNameConstant:
		positional := formatter.positionalArguments(arguments[1:])
		remoteName := gitDefaultPushTargetLabelConstant
		branchName := gitDefaultPushTargetLabelConstant
		if len(positional) > 0 {
			remoteName = RedactCredentials(positional[0])
		}
		if len(positional) > 1 {
			branchName = positional[1]
		}
		return formatter.selectTemplate(stage,
			fmt.Sprintf(gitPushStartTemplateConstant, branchName, remoteName, workingDirectory),
			fmt.Sprintf(gitPushSuccessTemplateConstant, branchName, remoteName, workingDirectory),
			fmt.Sprintf(gitPushFailureTemplateConstant, branchName, remoteName, workingDirectory, result.ExitCode, standardErrorSuffix),
		), true
	default:
		return "", false
	}
}

func (formatter CommandMessageFormatter) selectTemplate(stage messageStage, startMessage string, successMessage string, failureMessage string) string {
	switch stage {
	case messageStageStart:
		return startMessage
	case messageStageSuccess:
		return successMessage
	default:
		return failureMessage
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	return formatter.selectTemplate(stage,
		fmt.Sprintf(genericStartTemplateConstant, commandLabel),
		fmt.Sprintf(genericSuccessTemplateConstant, commandLabel),
		fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError)),
	)
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	commandParts = append(commandParts, command.Details.Arguments...)
	return RedactCredentials(strings.Join(commandParts, commandArgumentsJoinSeparatorConstant))
}

func (formatter CommandMessageFormatter) formatWorkingDirectory(command ShellCommand) string {
	trimmedDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedDirectory
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(RedactCredentials(standardError))
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) argumentAt(arguments []string, index int) string {
	if index >= len(arguments) {
		return unknownFailureMessageConstant
	}
	return arguments[index]
}

func (formatter CommandMessageFormatter) flagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if arguments[argumentIndex] == flag {
			return arguments[argumentIndex+1]
		}
	}
	return ""
}

func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, gitFlagPrefixConstant) {
			continue
		}
		positional = append(positional, argument)
	}
	return positional
}

func (formatter CommandMessageFormatter) lastPositionalArgument(arguments []string, fallback string) string {
	positional := formatter.positionalArguments(arguments)
	if len(positional) == 0 {
		return fallback
	}
	return positional[len(positional)-1]
}
