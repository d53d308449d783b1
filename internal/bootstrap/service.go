package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/githubapi"
	"github.com/temirov/shipyard/internal/gitrepo"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
)

// StepName identifies one stage of BootstrapAndPush.
type StepName string

// Bootstrap steps in execution order.
const (
	StepRemoveMetadata    StepName = "remove-metadata"
	StepInitialize        StepName = "initialize"
	StepConfigureIdentity StepName = "configure-identity"
	StepRemoveIndexLock   StepName = "remove-index-lock"
	StepCommit            StepName = "commit"
	StepBuildPushURL      StepName = "build-push-url"
	StepConfigureRemote   StepName = "configure-remote"
	StepResolveBranch     StepName = "resolve-branch"
	StepPush              StepName = "push"
)

// BranchAction describes how the branch resolution step converged on main.
type BranchAction string

// Branch resolution outcomes.
const (
	BranchActionUnchanged BranchAction = "unchanged"
	BranchActionSwitched  BranchAction = "switched"
	BranchActionCreated   BranchAction = "created"
)

const (
	// WorkflowName labels bootstrap metrics and spans.
	WorkflowName = "bootstrap"
	// BranchName is the branch every bootstrap publishes.
	BranchName = "main"
	// RemoteName is the remote every bootstrap configures.
	RemoteName = "origin"
	// InitialCommitMessage is the message of the bootstrap commit.
	InitialCommitMessage = "Initial commit of project files"
)

const (
	metadataDirectoryNameConstant     = ".git"
	indexLockFileNameConstant         = "index.lock"
	spanNameSeparatorConstant         = "."
	stepAttributeKeyConstant          = "shipyard.step"
	repositoryAttributeKeyConstant    = "shipyard.repository"
	logFieldStepConstant              = "step"
	logFieldPathConstant              = "path"
	logFieldRepositoryConstant        = "repository"
	logFieldOwnerConstant             = "owner"
	logFieldURLConstant               = "url"
	logFieldDurationConstant          = "duration"
	logFieldCommittedConstant         = "committed"
	logFieldRemoteActionConstant      = "remote_action"
	logFieldBranchActionConstant      = "branch_action"
	logFieldEntriesConstant           = "changed_entries"
	stepStartedMessageConstant        = "Bootstrap step started"
	stepCompletedMessageConstant      = "Bootstrap step completed"
	stepFailedMessageConstant         = "Bootstrap step failed"
	creatingRepositoryMessageConstant = "Creating remote repository"
	createdRepositoryMessageConstant  = "Remote repository created"
	reusingRepositoryMessageConstant  = "Repository name already taken; reusing existing repository"
	synthesizedURLMessageConstant     = "Repository creation returned no body; using derived URL"
	metadataRemovedMessageConstant    = "Removed existing git metadata"
	indexLockRemovedMessageConstant   = "Removed stale index lock"
	commitSkippedMessageConstant      = "Nothing to commit; skipping commit"
	bootstrapCompletedMessageConstant = "Working tree pushed"
)

// RepositoryCreator creates hosted repositories and fetches existing ones.
type RepositoryCreator interface {
	CreateRepository(executionContext context.Context, request githubapi.CreateRepositoryRequest) (githubapi.Repository, error)
	GetRepository(executionContext context.Context, owner string, name string) (githubapi.Repository, error)
}

// GitManager is the subset of gitrepo.RepositoryManager the bootstrap sequence drives.
type GitManager interface {
	Init(executionContext context.Context, repositoryPath string, initialBranch string) error
	ConfigureIdentity(executionContext context.Context, repositoryPath string, name string, email string) error
	StageAll(executionContext context.Context, repositoryPath string) error
	Status(executionContext context.Context, repositoryPath string) (gitrepo.WorktreeStatus, error)
	Commit(executionContext context.Context, repositoryPath string, message string) error
	ConfigureRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) (gitrepo.RemoteConfiguration, error)
	ListBranches(executionContext context.Context, repositoryPath string) (gitrepo.BranchSummary, error)
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	CreateAndCheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Push(executionContext context.Context, repositoryPath string, options gitrepo.PushOptions) error
}

// FileSystem exposes the file operations used to reset git metadata.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	RemoveAll(path string) error
	Remove(path string) error
}

// StepObserver receives the duration and outcome of every step.
type StepObserver interface {
	ObserveStep(workflow string, step string, duration time.Duration, stepError error)
}

// PushURLResolver builds the URL the working tree is pushed to.
type PushURLResolver func(coordinates gitrepo.RepositoryCoordinates, credential string) (string, error)

// ServiceDependencies enumerates the collaborators of Service.
type ServiceDependencies struct {
	Configuration     settings.Configuration
	RepositoryCreator RepositoryCreator
	GitManager        GitManager
	FileSystem        FileSystem
	Logger            *zap.Logger
	TracerProvider    trace.TracerProvider
	StepObserver      StepObserver
	PushURLResolver   PushURLResolver
}

// BootstrapResult summarizes a completed BootstrapAndPush.
type BootstrapResult struct {
	Committed    bool                        `yaml:"committed"`
	RemoteAction gitrepo.RemoteConfiguration `yaml:"remote_action"`
	BranchAction BranchAction                `yaml:"branch_action"`
	Branch       string                      `yaml:"branch"`
}

// Result summarizes Publish.
type Result struct {
	Repository githubapi.Repository `yaml:"-"`
	URL        string               `yaml:"url"`
	Push       BootstrapResult      `yaml:"push"`
}

// Service creates repositories and publishes working trees to them.
type Service struct {
	configuration     settings.Configuration
	repositoryCreator RepositoryCreator
	gitManager        GitManager
	fileSystem        FileSystem
	logger            *zap.Logger
	tracer            trace.Tracer
	stepObserver      StepObserver
	pushURLResolver   PushURLResolver
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryCreator == nil {
		return nil, ErrRepositoryCreatorNotConfigured
	}
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &Service{
		configuration:     dependencies.Configuration,
		repositoryCreator: dependencies.RepositoryCreator,
		gitManager:        dependencies.GitManager,
		fileSystem:        dependencies.FileSystem,
		logger:            logger,
		tracer:            telemetry.Tracer(dependencies.TracerProvider),
		stepObserver:      dependencies.StepObserver,
		pushURLResolver:   dependencies.PushURLResolver,
	}
	if service.pushURLResolver == nil {
		host := dependencies.Configuration.GitHubHost()
		service.pushURLResolver = func(coordinates gitrepo.RepositoryCoordinates, credential string) (string, error) {
			return gitrepo.BuildAuthenticatedRemoteURL(host, coordinates, credential)
		}
	}
	return service, nil
}

// CreateRemote creates a public, auto-initialized repository under the configured owner.
func (service *Service) CreateRemote(executionContext context.Context, repositoryName string) (githubapi.Repository, error) {
	trimmedName := strings.TrimSpace(repositoryName)
	if len(trimmedName) == 0 {
		return githubapi.Repository{}, ErrRepositoryNameRequired
	}

	owner, ownerError := service.configuration.RepositoryOwner()
	if ownerError != nil {
		return githubapi.Repository{}, ownerError
	}

	service.logger.Info(creatingRepositoryMessageConstant,
		zap.String(logFieldOwnerConstant, owner.Name),
		zap.String(logFieldRepositoryConstant, trimmedName),
	)

	repository, createError := service.repositoryCreator.CreateRepository(executionContext, githubapi.CreateRepositoryRequest{
		Owner:        owner.Name,
		Organization: owner.IsOrganization,
		Name:         trimmedName,
		Private:      false,
		AutoInit:     true,
	})
	if createError != nil {
		if !githubapi.IsNameTaken(createError) {
			return githubapi.Repository{}, createError
		}
		service.logger.Info(reusingRepositoryMessageConstant,
			zap.String(logFieldOwnerConstant, owner.Name),
			zap.String(logFieldRepositoryConstant, trimmedName),
		)
		existingRepository, lookupError := service.repositoryCreator.GetRepository(executionContext, owner.Name, trimmedName)
		if lookupError != nil {
			return githubapi.Repository{}, errors.Join(createError, lookupError)
		}
		repository = existingRepository
	}

	coordinates := gitrepo.RepositoryCoordinates{Owner: owner.Name, Repository: trimmedName}
	if len(strings.TrimSpace(repository.HTMLURL)) == 0 {
		webURL, urlError := gitrepo.BuildWebURL(service.configuration.GitHubHost(), coordinates)
		if urlError != nil {
			return githubapi.Repository{}, urlError
		}
		repository.HTMLURL = webURL
		service.logger.Warn(synthesizedURLMessageConstant, zap.String(logFieldURLConstant, webURL))
	}
	if len(repository.Name) == 0 {
		repository.Name = trimmedName
	}
	if len(repository.FullName) == 0 {
		repository.FullName = coordinates.FullName()
	}
	if len(repository.Owner.Login) == 0 {
		repository.Owner.Login = owner.Name
	}

	service.logger.Info(createdRepositoryMessageConstant, zap.String(logFieldURLConstant, repository.HTMLURL))
	return repository, nil
}

// Publish creates the remote repository and pushes localPath into it.
func (service *Service) Publish(executionContext context.Context, localPath string, repositoryName string) (Result, error) {
	repository, createError := service.CreateRemote(executionContext, repositoryName)
	if createError != nil {
		return Result{}, createError
	}

	pushResult, pushError := service.BootstrapAndPush(executionContext, localPath, repositoryName)
	if pushError != nil {
		return Result{Repository: repository, URL: repository.HTMLURL}, pushError
	}
	return Result{Repository: repository, URL: repository.HTMLURL, Push: pushResult}, nil
}

type bootstrapState struct {
	localPath      string
	repositoryName string
	pushURL        string
	result         BootstrapResult
}

type bootstrapStep struct {
	name StepName
	run  func(executionContext context.Context, state *bootstrapState) error
}

func (service *Service) steps() []bootstrapStep {
	return []bootstrapStep{
		{name: StepRemoveMetadata, run: service.removeMetadata},
		{name: StepInitialize, run: service.initialize},
		{name: StepConfigureIdentity, run: service.configureIdentity},
		{name: StepRemoveIndexLock, run: service.removeIndexLock},
		{name: StepCommit, run: service.commit},
		{name: StepBuildPushURL, run: service.buildPushURL},
		{name: StepConfigureRemote, run: service.configureRemote},
		{name: StepResolveBranch, run: service.resolveBranch},
		{name: StepPush, run: service.push},
	}
}

// BootstrapAndPush replaces the git history at localPath with a single fresh
// commit and force-pushes it to main on the named repository.
func (service *Service) BootstrapAndPush(executionContext context.Context, localPath string, repositoryName string) (BootstrapResult, error) {
	trimmedPath := strings.TrimSpace(localPath)
	if len(trimmedPath) == 0 {
		return BootstrapResult{}, ErrLocalPathRequired
	}
	trimmedName := strings.TrimSpace(repositoryName)
	if len(trimmedName) == 0 {
		return BootstrapResult{}, ErrRepositoryNameRequired
	}

	state := &bootstrapState{localPath: trimmedPath, repositoryName: trimmedName, result: BootstrapResult{Branch: BranchName}}
	for _, step := range service.steps() {
		if stepError := service.runStep(executionContext, step, state); stepError != nil {
			return state.result, StepError{Step: step.name, Cause: stepError}
		}
	}

	service.logger.Info(bootstrapCompletedMessageConstant,
		zap.String(logFieldPathConstant, trimmedPath),
		zap.String(logFieldRepositoryConstant, trimmedName),
		zap.Bool(logFieldCommittedConstant, state.result.Committed),
		zap.String(logFieldRemoteActionConstant, string(state.result.RemoteAction)),
		zap.String(logFieldBranchActionConstant, string(state.result.BranchAction)),
	)
	return state.result, nil
}

func (service *Service) runStep(executionContext context.Context, step bootstrapStep, state *bootstrapState) error {
	stepContext, span := service.tracer.Start(executionContext, WorkflowName+spanNameSeparatorConstant+string(step.name),
		trace.WithAttributes(
			attribute.String(stepAttributeKeyConstant, string(step.name)),
			attribute.String(repositoryAttributeKeyConstant, state.repositoryName),
		),
	)
	defer span.End()

	stepFields := []zap.Field{
		zap.String(logFieldStepConstant, string(step.name)),
		zap.String(logFieldPathConstant, state.localPath),
	}
	service.logger.Debug(stepStartedMessageConstant, stepFields...)

	startTime := time.Now()
	stepError := step.run(stepContext, state)
	elapsed := time.Since(startTime)
	if service.stepObserver != nil {
		service.stepObserver.ObserveStep(WorkflowName, string(step.name), elapsed, stepError)
	}

	if stepError != nil {
		span.RecordError(stepError)
		span.SetStatus(codes.Error, stepError.Error())
		service.logger.Error(stepFailedMessageConstant, append(stepFields, zap.Error(stepError))...)
		return stepError
	}
	service.logger.Debug(stepCompletedMessageConstant, append(stepFields, zap.Duration(logFieldDurationConstant, elapsed))...)
	return nil
}

func (service *Service) removeMetadata(_ context.Context, state *bootstrapState) error {
	metadataPath := filepath.Join(state.localPath, metadataDirectoryNameConstant)
	removed, removeError := service.removeIfPresent(metadataPath, service.fileSystem.RemoveAll)
	if removeError != nil {
		return removeError
	}
	if removed {
		service.logger.Info(metadataRemovedMessageConstant, zap.String(logFieldPathConstant, metadataPath))
	}
	return nil
}

func (service *Service) initialize(executionContext context.Context, state *bootstrapState) error {
	return service.gitManager.Init(executionContext, state.localPath, BranchName)
}

func (service *Service) configureIdentity(executionContext context.Context, state *bootstrapState) error {
	identity, identityError := service.configuration.CommitterIdentity()
	if identityError != nil {
		return identityError
	}
	return service.gitManager.ConfigureIdentity(executionContext, state.localPath, identity.Name, identity.Email)
}

func (service *Service) removeIndexLock(_ context.Context, state *bootstrapState) error {
	lockPath := filepath.Join(state.localPath, metadataDirectoryNameConstant, indexLockFileNameConstant)
	removed, removeError := service.removeIfPresent(lockPath, service.fileSystem.Remove)
	if removeError != nil {
		return removeError
	}
	if removed {
		service.logger.Warn(indexLockRemovedMessageConstant, zap.String(logFieldPathConstant, lockPath))
	}
	return nil
}

func (service *Service) commit(executionContext context.Context, state *bootstrapState) error {
	if stageError := service.gitManager.StageAll(executionContext, state.localPath); stageError != nil {
		return stageError
	}
	status, statusError := service.gitManager.Status(executionContext, state.localPath)
	if statusError != nil {
		return statusError
	}
	if !status.HasChanges() {
		service.logger.Info(commitSkippedMessageConstant, zap.String(logFieldPathConstant, state.localPath))
		return nil
	}
	if commitError := service.gitManager.Commit(executionContext, state.localPath, InitialCommitMessage); commitError != nil {
		return commitError
	}
	state.result.Committed = true
	service.logger.Debug(stepCompletedMessageConstant, zap.String(logFieldStepConstant, string(StepCommit)), zap.Int(logFieldEntriesConstant, len(status.Entries)))
	return nil
}

func (service *Service) buildPushURL(_ context.Context, state *bootstrapState) error {
	credential, credentialError := service.configuration.GitHubToken()
	if credentialError != nil {
		return credentialError
	}
	owner, ownerError := service.configuration.RepositoryOwner()
	if ownerError != nil {
		return ownerError
	}
	pushURL, urlError := service.pushURLResolver(gitrepo.RepositoryCoordinates{Owner: owner.Name, Repository: state.repositoryName}, credential)
	if urlError != nil {
		return urlError
	}
	state.pushURL = pushURL
	return nil
}

func (service *Service) configureRemote(executionContext context.Context, state *bootstrapState) error {
	remoteAction, configureError := service.gitManager.ConfigureRemote(executionContext, state.localPath, RemoteName, state.pushURL)
	if configureError != nil {
		return configureError
	}
	state.result.RemoteAction = remoteAction
	return nil
}

func (service *Service) resolveBranch(executionContext context.Context, state *bootstrapState) error {
	branches, listError := service.gitManager.ListBranches(executionContext, state.localPath)
	if listError != nil {
		return listError
	}

	switch {
	case branches.Current == BranchName:
		state.result.BranchAction = BranchActionUnchanged
		return nil
	case branches.Contains(BranchName):
		state.result.BranchAction = BranchActionSwitched
		return service.gitManager.CheckoutBranch(executionContext, state.localPath, BranchName)
	default:
		state.result.BranchAction = BranchActionCreated
		return service.gitManager.CreateAndCheckoutBranch(executionContext, state.localPath, BranchName)
	}
}

func (service *Service) push(executionContext context.Context, state *bootstrapState) error {
	return service.gitManager.Push(executionContext, state.localPath, gitrepo.PushOptions{
		RemoteName:  RemoteName,
		BranchName:  BranchName,
		SetUpstream: true,
		Force:       true,
	})
}

func (service *Service) removeIfPresent(path string, remove func(string) error) (bool, error) {
	if _, statError := service.fileSystem.Stat(path); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, nil
		}
		return false, statError
	}
	if removeError := remove(path); removeError != nil {
		if errors.Is(removeError, fs.ErrNotExist) {
			return false, nil
		}
		return false, removeError
	}
	return true, nil
}
