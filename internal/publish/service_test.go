package publish_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/shipyard/internal/bootstrap"
	"github.com/temirov/shipyard/internal/deployment"
	"github.com/temirov/shipyard/internal/publish"
)

const (
	testLocalPathConstant        = "/workspace/landing-page"
	testRepositoryNameConstant   = "landing-page"
	testRepositoryURLConstant    = "https://github.com/octo/landing-page"
	testDeploymentURLConstant    = "https://landing-page-abc.vercel.app"
	testRunIdentifierConstant    = "run-0001"
	testPublishedMessageConstant = "Project published"
)

type stubRepositoryPublisher struct {
	result      bootstrap.Result
	err         error
	calls       int
	lastPath    string
	lastName    string
	callOrdinal *int
	ordinal     int
}

func (publisher *stubRepositoryPublisher) Publish(_ context.Context, localPath string, repositoryName string) (bootstrap.Result, error) {
	publisher.calls++
	publisher.lastPath = localPath
	publisher.lastName = repositoryName
	if publisher.callOrdinal != nil {
		*publisher.callOrdinal++
		publisher.ordinal = *publisher.callOrdinal
	}
	return publisher.result, publisher.err
}

type stubDeployer struct {
	run         deployment.Run
	err         error
	calls       int
	lastURL     string
	callOrdinal *int
	ordinal     int
}

func (deployer *stubDeployer) CreateAndDeploy(_ context.Context, repositoryURL string) (deployment.Run, error) {
	deployer.calls++
	deployer.lastURL = repositoryURL
	if deployer.callOrdinal != nil {
		*deployer.callOrdinal++
		deployer.ordinal = *deployer.callOrdinal
	}
	return deployer.run, deployer.err
}

type recordingWorkflowObserver struct {
	outcomes map[string][]string
}

func (recorder *recordingWorkflowObserver) ObserveWorkflow(workflow string, outcome string) {
	if recorder.outcomes == nil {
		recorder.outcomes = map[string][]string{}
	}
	recorder.outcomes[workflow] = append(recorder.outcomes[workflow], outcome)
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, missingPublisherError := publish.NewService(publish.ServiceDependencies{Deployer: &stubDeployer{}})
	require.ErrorIs(testInstance, missingPublisherError, publish.ErrRepositoryPublisherNotConfigured)

	_, missingDeployerError := publish.NewService(publish.ServiceDependencies{RepositoryPublisher: &stubRepositoryPublisher{}})
	require.ErrorIs(testInstance, missingDeployerError, publish.ErrDeployerNotConfigured)
}

func TestServicePublishRunsBothWorkflowsInOrder(testInstance *testing.T) {
	callOrdinal := 0
	repositoryPublisher := &stubRepositoryPublisher{
		result: bootstrap.Result{
			URL:  testRepositoryURLConstant,
			Push: bootstrap.BootstrapResult{Committed: true, Branch: bootstrap.BranchName},
		},
		callOrdinal: &callOrdinal,
	}
	deployer := &stubDeployer{
		run:         deployment.Run{Status: deployment.StatusReady, URL: testDeploymentURLConstant, Verified: true},
		callOrdinal: &callOrdinal,
	}
	workflowObserver := &recordingWorkflowObserver{}
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)

	service, serviceError := publish.NewService(publish.ServiceDependencies{
		RepositoryPublisher: repositoryPublisher,
		Deployer:            deployer,
		Logger:              zap.New(observedCore),
		WorkflowObserver:    workflowObserver,
		RunIdentifier:       testRunIdentifierConstant,
	})
	require.NoError(testInstance, serviceError)

	result, publishError := service.Publish(context.Background(), testLocalPathConstant, testRepositoryNameConstant)
	require.NoError(testInstance, publishError)

	require.Equal(testInstance, testRunIdentifierConstant, result.RunID)
	require.Equal(testInstance, testRepositoryURLConstant, result.Repository.URL)
	require.Equal(testInstance, testDeploymentURLConstant, result.Deployment.URL)
	require.Equal(testInstance, testLocalPathConstant, repositoryPublisher.lastPath)
	require.Equal(testInstance, testRepositoryNameConstant, repositoryPublisher.lastName)
	require.Equal(testInstance, testRepositoryURLConstant, deployer.lastURL)
	require.Equal(testInstance, 1, repositoryPublisher.ordinal)
	require.Equal(testInstance, 2, deployer.ordinal)
	require.Equal(testInstance, []string{"success"}, workflowObserver.outcomes[publish.WorkflowName])

	completedEntries := observedLogs.FilterMessage(testPublishedMessageConstant).All()
	require.Len(testInstance, completedEntries, 1)
	require.Equal(testInstance, testRunIdentifierConstant, completedEntries[0].ContextMap()["run_id"])
}

func TestServicePublishStopsAfterRepositoryFailure(testInstance *testing.T) {
	pushFailure := bootstrap.StepError{Step: bootstrap.StepPush, Cause: errors.New("remote rejected")}
	repositoryPublisher := &stubRepositoryPublisher{
		result: bootstrap.Result{URL: testRepositoryURLConstant},
		err:    pushFailure,
	}
	deployer := &stubDeployer{}
	workflowObserver := &recordingWorkflowObserver{}

	service, serviceError := publish.NewService(publish.ServiceDependencies{
		RepositoryPublisher: repositoryPublisher,
		Deployer:            deployer,
		WorkflowObserver:    workflowObserver,
	})
	require.NoError(testInstance, serviceError)

	result, publishError := service.Publish(context.Background(), testLocalPathConstant, testRepositoryNameConstant)
	require.Error(testInstance, publishError)

	var stepError bootstrap.StepError
	require.ErrorAs(testInstance, publishError, &stepError)
	require.Equal(testInstance, bootstrap.StepPush, stepError.Step)
	require.Equal(testInstance, testRepositoryURLConstant, result.Repository.URL)
	require.NotEmpty(testInstance, result.RunID)
	require.Zero(testInstance, deployer.calls)
	require.Equal(testInstance, []string{"failure"}, workflowObserver.outcomes[publish.WorkflowName])
}

func TestServicePublishReportsDeploymentFailure(testInstance *testing.T) {
	failure := deployment.DeploymentFailedError{DeploymentID: "dpl_1", State: "ERROR", Reason: "build failed"}
	deployer := &stubDeployer{
		run: deployment.Run{DeploymentID: "dpl_1", Status: "ERROR"},
		err: failure,
	}

	service, serviceError := publish.NewService(publish.ServiceDependencies{
		RepositoryPublisher: &stubRepositoryPublisher{result: bootstrap.Result{URL: testRepositoryURLConstant}},
		Deployer:            deployer,
	})
	require.NoError(testInstance, serviceError)

	result, publishError := service.Publish(context.Background(), testLocalPathConstant, testRepositoryNameConstant)

	var failedError deployment.DeploymentFailedError
	require.ErrorAs(testInstance, publishError, &failedError)
	require.Equal(testInstance, "build failed", failedError.Reason)
	require.Equal(testInstance, "ERROR", result.Deployment.Status)
}

func TestResultTextLinesFlagUnverifiedDeployment(testInstance *testing.T) {
	verified := publish.Result{
		Repository: bootstrap.Result{URL: testRepositoryURLConstant, Push: bootstrap.BootstrapResult{Branch: bootstrap.BranchName}},
		Deployment: deployment.Run{Status: deployment.StatusReady, URL: testDeploymentURLConstant, Verified: true},
	}
	require.Len(testInstance, verified.TextLines(), 3)
	require.Contains(testInstance, verified.TextLines()[0], testRepositoryURLConstant)
	require.Contains(testInstance, verified.TextLines()[2], testDeploymentURLConstant)

	unverified := verified
	unverified.Deployment = deployment.Run{Status: deployment.StatusUnverified, URL: "https://landing-page.vercel.app"}
	require.Len(testInstance, unverified.TextLines(), 4)
	require.Contains(testInstance, unverified.TextLines()[2], deployment.StatusUnverified)
}
