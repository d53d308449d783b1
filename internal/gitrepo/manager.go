package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/shipyard/internal/execshell"
)

const (
	gitInitSubcommandConstant            = "init"
	gitInitialBranchFlagConstant         = "--initial-branch"
	gitConfigSubcommandConstant          = "config"
	gitUserNameConfigKeyConstant         = "user.name"
	gitUserEmailConfigKeyConstant        = "user.email"
	gitAddSubcommandConstant             = "add"
	gitAddAllPathspecConstant            = "."
	gitStatusSubcommandConstant          = "status"
	gitPorcelainFlagConstant             = "--porcelain"
	gitCommitSubcommandConstant          = "commit"
	gitMessageFlagConstant               = "-m"
	gitRemoteSubcommandConstant          = "remote"
	gitRemoteAddSubcommandConstant       = "add"
	gitRemoteSetURLSubcommandConstant    = "set-url"
	gitSymbolicRefSubcommandConstant     = "symbolic-ref"
	gitQuietFlagConstant                 = "--quiet"
	gitShortFlagConstant                 = "--short"
	gitHeadReferenceConstant             = "HEAD"
	gitBranchSubcommandConstant          = "branch"
	gitListFlagConstant                  = "--list"
	gitShortRefnameFormatFlagConstant    = "--format=%(refname:short)"
	gitCheckoutSubcommandConstant        = "checkout"
	gitCreateBranchFlagConstant          = "-b"
	gitPushSubcommandConstant            = "push"
	gitSetUpstreamFlagConstant           = "-u"
	gitForceFlagConstant                 = "--force"
	flagAssignmentSeparatorConstant      = "="
	lineSeparatorConstant                = "\n"
	detachedHeadExitCodeConstant         = 1
	executorNotConfiguredMessageConstant = "git executor not configured"
)

// ErrExecutorNotConfigured indicates the manager was constructed without a git executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitExecutor is the subset of execshell.ShellExecutor used by RepositoryManager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// StatusEntry is one line of porcelain status output.
type StatusEntry struct {
	IndexState    byte
	WorktreeState byte
	Path          string
}

// WorktreeStatus summarizes the porcelain status of a working tree.
type WorktreeStatus struct {
	Entries []StatusEntry
}

// HasChanges reports whether anything is staged or modified.
func (status WorktreeStatus) HasChanges() bool {
	return len(status.Entries) > 0
}

// BranchSummary lists local branches and the checked-out one.
type BranchSummary struct {
	Current string
	All     []string
}

// Contains reports whether the named branch exists locally.
func (summary BranchSummary) Contains(branchName string) bool {
	for _, existingBranch := range summary.All {
		if existingBranch == branchName {
			return true
		}
	}
	return false
}

// RemoteConfiguration describes how ConfigureRemote converged the remote.
type RemoteConfiguration string

// Remote configuration outcomes.
const (
	RemoteConfigurationAdded   RemoteConfiguration = RemoteConfiguration("added")
	RemoteConfigurationUpdated RemoteConfiguration = RemoteConfiguration("updated")
)

// PushOptions configure a push.
type PushOptions struct {
	RemoteName  string
	BranchName  string
	SetUpstream bool
	Force       bool
}

// RepositoryManager performs git operations inside a working tree.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// Init creates git metadata in repositoryPath. A non-empty initialBranch names the unborn branch.
func (manager *RepositoryManager) Init(executionContext context.Context, repositoryPath string, initialBranch string) error {
	arguments := []string{gitInitSubcommandConstant}
	if trimmedBranch := strings.TrimSpace(initialBranch); len(trimmedBranch) > 0 {
		arguments = append(arguments, gitInitialBranchFlagConstant+flagAssignmentSeparatorConstant+trimmedBranch)
	}
	return manager.run(executionContext, repositoryPath, arguments...)
}

// ConfigureIdentity sets the committer name and email for the repository.
func (manager *RepositoryManager) ConfigureIdentity(executionContext context.Context, repositoryPath string, name string, email string) error {
	if configurationError := manager.run(executionContext, repositoryPath, gitConfigSubcommandConstant, gitUserNameConfigKeyConstant, name); configurationError != nil {
		return configurationError
	}
	return manager.run(executionContext, repositoryPath, gitConfigSubcommandConstant, gitUserEmailConfigKeyConstant, email)
}

// StageAll stages every file under repositoryPath.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	return manager.run(executionContext, repositoryPath, gitAddSubcommandConstant, gitAddAllPathspecConstant)
}

// Status reads the porcelain status of the working tree.
func (manager *RepositoryManager) Status(executionContext context.Context, repositoryPath string) (WorktreeStatus, error) {
	output, statusError := manager.output(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return WorktreeStatus{}, statusError
	}

	var entries []StatusEntry
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		if len(strings.TrimSpace(line)) == 0 || len(line) < 4 {
			continue
		}
		entries = append(entries, StatusEntry{IndexState: line[0], WorktreeState: line[1], Path: strings.TrimSpace(line[3:])})
	}
	return WorktreeStatus{Entries: entries}, nil
}

// Commit records the staged snapshot with the given message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, message string) error {
	return manager.run(executionContext, repositoryPath, gitCommitSubcommandConstant, gitMessageFlagConstant, message)
}

// ListRemotes returns configured remote names.
func (manager *RepositoryManager) ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	output, listError := manager.output(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if listError != nil {
		return nil, listError
	}
	return splitNonEmptyLines(output), nil
}

// AddRemote registers a new remote.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL)
}

// SetRemoteURL repoints an existing remote.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteSetURLSubcommandConstant, remoteName, remoteURL)
}

// ConfigureRemote repoints remoteName when it exists and adds it otherwise.
func (manager *RepositoryManager) ConfigureRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) (RemoteConfiguration, error) {
	remoteNames, listError := manager.ListRemotes(executionContext, repositoryPath)
	if listError != nil {
		return "", listError
	}

	for _, existingRemote := range remoteNames {
		if existingRemote == remoteName {
			if updateError := manager.SetRemoteURL(executionContext, repositoryPath, remoteName, remoteURL); updateError != nil {
				return "", updateError
			}
			return RemoteConfigurationUpdated, nil
		}
	}

	if addError := manager.AddRemote(executionContext, repositoryPath, remoteName, remoteURL); addError != nil {
		return "", addError
	}
	return RemoteConfigurationAdded, nil
}

// ListBranches reports local branches and the checked-out branch. Current is empty on a detached HEAD.
func (manager *RepositoryManager) ListBranches(executionContext context.Context, repositoryPath string) (BranchSummary, error) {
	currentBranch, currentError := manager.output(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if currentError != nil {
		var failedError execshell.CommandFailedError
		if !errors.As(currentError, &failedError) || failedError.Result.ExitCode != detachedHeadExitCodeConstant {
			return BranchSummary{}, currentError
		}
		currentBranch = ""
	}

	branchOutput, branchError := manager.output(executionContext, repositoryPath, gitBranchSubcommandConstant, gitListFlagConstant, gitShortRefnameFormatFlagConstant)
	if branchError != nil {
		return BranchSummary{}, branchError
	}

	return BranchSummary{Current: strings.TrimSpace(currentBranch), All: splitNonEmptyLines(branchOutput)}, nil
}

// CheckoutBranch switches to an existing branch.
func (manager *RepositoryManager) CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	return manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, branchName)
}

// CreateAndCheckoutBranch creates branchName at HEAD and switches to it.
func (manager *RepositoryManager) CreateAndCheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	return manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branchName)
}

// Push publishes a branch to a remote.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, options PushOptions) error {
	arguments := []string{gitPushSubcommandConstant}
	if options.SetUpstream {
		arguments = append(arguments, gitSetUpstreamFlagConstant)
	}
	arguments = append(arguments, options.RemoteName, options.BranchName)
	if options.Force {
		arguments = append(arguments, gitForceFlagConstant)
	}
	return manager.run(executionContext, repositoryPath, arguments...)
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

func (manager *RepositoryManager) output(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

func splitNonEmptyLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) > 0 {
			lines = append(lines, trimmedLine)
		}
	}
	return lines
}
