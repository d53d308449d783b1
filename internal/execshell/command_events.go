package execshell

const (
	commandOutcomeSuccessConstant   = "success"
	commandOutcomeExitCodeConstant  = "nonzero_exit"
	commandOutcomeExecErrorConstant = "exec_error"
	unknownSubcommandConstant       = "unknown"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports failures that prevented an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// CommandOutcomeRecorder counts finished commands by subcommand and outcome.
type CommandOutcomeRecorder interface {
	ObserveCommand(command string, subcommand string, outcome string)
}

// NewOutcomeObserver adapts a CommandOutcomeRecorder to CommandEventObserver.
// Outcomes are "success", "nonzero_exit" and "exec_error"; the subcommand is the first positional argument.
func NewOutcomeObserver(recorder CommandOutcomeRecorder) CommandEventObserver {
	if recorder == nil {
		return noopCommandEventObserver{}
	}
	return outcomeObserver{recorder: recorder}
}

type outcomeObserver struct {
	recorder CommandOutcomeRecorder
}

func (observer outcomeObserver) CommandStarted(ShellCommand) {}

func (observer outcomeObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	outcome := commandOutcomeSuccessConstant
	if result.ExitCode != 0 {
		outcome = commandOutcomeExitCodeConstant
	}
	observer.recorder.ObserveCommand(string(command.Name), subcommandLabel(command), outcome)
}

func (observer outcomeObserver) CommandExecutionFailed(command ShellCommand, _ error) {
	observer.recorder.ObserveCommand(string(command.Name), subcommandLabel(command), commandOutcomeExecErrorConstant)
}

func subcommandLabel(command ShellCommand) string {
	positional := CommandMessageFormatter{}.positionalArguments(command.Details.Arguments)
	if len(positional) == 0 {
		return unknownSubcommandConstant
	}
	return positional[0]
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
