package deployment_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/shipyard/internal/deployment"
	"github.com/temirov/shipyard/internal/restclient"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/vercelapi"
)

const (
	testRepositoryURLConstant = "https://github.com/octocat/demo-site.git"
	testProjectNameConstant   = "demo-site"
	testFullRepoConstant      = "octocat/demo-site"
	testProjectIDConstant     = "prj_123"
	testDeploymentIDConstant  = "dpl_456"
)

var notFoundError = restclient.APIError{Method: http.MethodGet, Path: "/v9/projects/demo-site", StatusCode: http.StatusNotFound, Code: "not_found", Message: "Project not found"}

type deploymentStep struct {
	deployment vercelapi.Deployment
	err        error
}

type stubPlatformClient struct {
	project         vercelapi.Project
	projectError    error
	refetched       *vercelapi.Project
	createdProject  vercelapi.Project
	createError     error
	link            vercelapi.ProjectLink
	linkError       error
	triggered       vercelapi.Deployment
	triggerError    error
	script          []deploymentStep
	getProjectCalls int
	createCalls     int
	linkCalls       int
	deploymentCalls int
	statusCalls     int
	createRequests  []vercelapi.CreateProjectRequest
	linkRequests    []vercelapi.LinkProjectRequest
	deployRequests  []vercelapi.CreateDeploymentRequest
}

func (client *stubPlatformClient) GetProject(context.Context, string) (vercelapi.Project, error) {
	client.getProjectCalls++
	if client.getProjectCalls > 1 && client.refetched != nil {
		return *client.refetched, nil
	}
	return client.project, client.projectError
}

func (client *stubPlatformClient) CreateProject(_ context.Context, request vercelapi.CreateProjectRequest) (vercelapi.Project, error) {
	client.createCalls++
	client.createRequests = append(client.createRequests, request)
	return client.createdProject, client.createError
}

func (client *stubPlatformClient) LinkProject(_ context.Context, _ string, request vercelapi.LinkProjectRequest) (vercelapi.ProjectLink, error) {
	client.linkCalls++
	client.linkRequests = append(client.linkRequests, request)
	return client.link, client.linkError
}

func (client *stubPlatformClient) CreateDeployment(_ context.Context, request vercelapi.CreateDeploymentRequest) (vercelapi.Deployment, error) {
	client.deploymentCalls++
	client.deployRequests = append(client.deployRequests, request)
	return client.triggered, client.triggerError
}

func (client *stubPlatformClient) GetDeployment(context.Context, string) (vercelapi.Deployment, error) {
	client.statusCalls++
	if len(client.script) == 0 {
		return vercelapi.Deployment{ID: testDeploymentIDConstant, ReadyState: vercelapi.StateBuilding}, nil
	}
	step := client.script[0]
	if len(client.script) > 1 {
		client.script = client.script[1:]
	}
	return step.deployment, step.err
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	return clock.now
}

func (clock *fakeClock) Sleep(executionContext context.Context, duration time.Duration) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}
	clock.sleeps = append(clock.sleeps, duration)
	clock.now = clock.now.Add(duration)
	return nil
}

type recordingPollObserver struct {
	states []string
}

func (pollObserver *recordingPollObserver) ObservePollAttempt(state string) {
	pollObserver.states = append(pollObserver.states, state)
}

func testConfiguration(timeout time.Duration, interval time.Duration) settings.Configuration {
	return settings.New(settings.Source{
		Deployment: settings.DeploymentSource{PollTimeout: timeout, PollInterval: interval},
	}, func(string) (string, bool) { return "", false })
}

func newService(testInstance *testing.T, client deployment.PlatformClient, clock deployment.Clock, pollObserver deployment.PollObserver, logger *zap.Logger) *deployment.Service {
	testInstance.Helper()
	service, serviceError := deployment.NewService(deployment.ServiceDependencies{
		Configuration: testConfiguration(30*time.Second, 10*time.Second),
		Client:        client,
		Clock:         clock,
		Logger:        logger,
		PollObserver:  pollObserver,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func stateStep(state string, url string) deploymentStep {
	return deploymentStep{deployment: vercelapi.Deployment{ID: testDeploymentIDConstant, ReadyState: state, URL: url}}
}

func TestNewServiceRequiresClient(testInstance *testing.T) {
	_, serviceError := deployment.NewService(deployment.ServiceDependencies{})
	require.ErrorIs(testInstance, serviceError, deployment.ErrPlatformClientNotConfigured)
}

func TestResolveRepositoryCoordinates(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedOwner string
		expectedRepo  string
		expectInvalid bool
	}{
		{name: "https_with_suffix", input: testRepositoryURLConstant, expectedOwner: "octocat", expectedRepo: "demo-site"},
		{name: "https_without_suffix", input: "https://github.com/octocat/demo-site", expectedOwner: "octocat", expectedRepo: "demo-site"},
		{name: "scp_style", input: "git@github.com:octocat/demo-site.git", expectedOwner: "octocat", expectedRepo: "demo-site"},
		{name: "missing_repository", input: "https://github.com/octocat", expectInvalid: true},
		{name: "other_host", input: "https://gitlab.com/octocat/demo-site", expectInvalid: true},
		{name: "empty", input: "", expectInvalid: true},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			coordinates, resolveError := deployment.ResolveRepositoryCoordinates(testCase.input, "github.com")
			if testCase.expectInvalid {
				var invalidInputError deployment.InvalidInputError
				require.True(subtest, errors.As(resolveError, &invalidInputError))
				require.Equal(subtest, testCase.input, invalidInputError.Input)
				return
			}
			require.NoError(subtest, resolveError)
			require.Equal(subtest, testCase.expectedOwner, coordinates.Owner)
			require.Equal(subtest, testCase.expectedRepo, coordinates.Repository)
		})
	}
}

func TestCreateAndDeployRejectsMalformedURLWithoutNetworkCalls(testInstance *testing.T) {
	client := &stubPlatformClient{}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	_, deployError := service.CreateAndDeploy(context.Background(), "https://github.com/only-owner")

	var invalidInputError deployment.InvalidInputError
	require.True(testInstance, errors.As(deployError, &invalidInputError))
	require.Zero(testInstance, client.getProjectCalls+client.createCalls+client.linkCalls+client.deploymentCalls+client.statusCalls)
}

func TestEnsureProjectCreatesMissingProject(testInstance *testing.T) {
	client := &stubPlatformClient{
		projectError:   notFoundError,
		createdProject: vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant, Link: &vercelapi.ProjectLink{Type: "github", RepoID: "42"}},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	binding, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
	require.NoError(testInstance, ensureError)
	require.Equal(testInstance, 1, client.createCalls)
	require.Zero(testInstance, client.linkCalls)
	require.True(testInstance, binding.Created)
	require.Equal(testInstance, vercelapi.RepositoryID("42"), binding.RepoID)
	require.Equal(testInstance, vercelapi.CreateProjectRequest{
		Name:          testProjectNameConstant,
		Framework:     "vite",
		GitRepository: &vercelapi.GitRepository{Type: "github", Repo: testFullRepoConstant},
	}, client.createRequests[0])
}

func TestEnsureProjectTreatsNotFoundCodeAsAbsent(testInstance *testing.T) {
	client := &stubPlatformClient{
		projectError:   restclient.APIError{StatusCode: http.StatusBadRequest, Code: "not_found"},
		createdProject: vercelapi.Project{ID: testProjectIDConstant},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	_, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
	require.NoError(testInstance, ensureError)
	require.Equal(testInstance, 1, client.createCalls)
}

func TestEnsureProjectWithoutRepoIDLeadsToLinkingError(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.WarnLevel)
	client := &stubPlatformClient{
		projectError:   notFoundError,
		createdProject: vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant},
	}
	service := newService(testInstance, client, newFakeClock(), nil, zap.New(observerCore))

	binding, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
	require.NoError(testInstance, ensureError)
	require.Equal(testInstance, 1, client.createCalls)
	require.Zero(testInstance, client.linkCalls)
	require.True(testInstance, binding.RepoID.Empty())
	require.Equal(testInstance, 1, observedLogs.Len())

	_, triggerError := service.TriggerDeployment(context.Background(), binding)
	var linkingError deployment.LinkingError
	require.True(testInstance, errors.As(triggerError, &linkingError))
	require.Equal(testInstance, testProjectNameConstant, linkingError.Project)
	require.Zero(testInstance, client.deploymentCalls)
}

func TestEnsureProjectLinksExistingProject(testInstance *testing.T) {
	testCases := []struct {
		name          string
		link          *vercelapi.ProjectLink
		expectedLinks int
	}{
		{name: "no_link", link: nil, expectedLinks: 1},
		{name: "non_github_link", link: &vercelapi.ProjectLink{Type: "gitlab", RepoID: "7"}, expectedLinks: 1},
		{name: "github_link_without_repo_id", link: &vercelapi.ProjectLink{Type: "github"}, expectedLinks: 1},
		{name: "already_linked", link: &vercelapi.ProjectLink{Type: "github", RepoID: "99"}, expectedLinks: 0},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			client := &stubPlatformClient{
				project: vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant, Link: testCase.link},
				link:    vercelapi.ProjectLink{Type: "github", RepoID: "99"},
			}
			service := newService(subtest, client, newFakeClock(), nil, nil)

			binding, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
			require.NoError(subtest, ensureError)
			require.Zero(subtest, client.createCalls)
			require.Equal(subtest, testCase.expectedLinks, client.linkCalls)
			require.Equal(subtest, vercelapi.RepositoryID("99"), binding.RepoID)
			if testCase.expectedLinks > 0 {
				require.Equal(subtest, vercelapi.LinkProjectRequest{Type: "github", Repo: testFullRepoConstant, ProductionBranch: "main"}, client.linkRequests[0])
			}
		})
	}
}

func TestEnsureProjectReusesProjectCreatedConcurrently(testInstance *testing.T) {
	testCases := []struct {
		name          string
		createError   error
		refetched     vercelapi.Project
		expectedLinks int
	}{
		{
			name:        "conflict_status_linked",
			createError: restclient.APIError{StatusCode: http.StatusConflict, Code: "conflict", Message: "Project already exists"},
			refetched:   vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant, Link: &vercelapi.ProjectLink{Type: "github", RepoID: "99"}},
		},
		{
			name:          "conflict_unparseable_body_unlinked",
			createError:   restclient.ParseError{StatusCode: http.StatusConflict, Body: "conflict"},
			refetched:     vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant},
			expectedLinks: 1,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			refetched := testCase.refetched
			client := &stubPlatformClient{
				projectError: notFoundError,
				refetched:    &refetched,
				createError:  testCase.createError,
				link:         vercelapi.ProjectLink{Type: "github", RepoID: "99"},
			}
			service := newService(subtest, client, newFakeClock(), nil, nil)

			binding, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
			require.NoError(subtest, ensureError)
			require.Equal(subtest, 1, client.createCalls)
			require.Equal(subtest, 2, client.getProjectCalls)
			require.Equal(subtest, testCase.expectedLinks, client.linkCalls)
			require.False(subtest, binding.Created)
			require.Equal(subtest, testProjectIDConstant, binding.ProjectID)
			require.Equal(subtest, vercelapi.RepositoryID("99"), binding.RepoID)
		})
	}
}

func TestEnsureProjectPropagatesCreateFailures(testInstance *testing.T) {
	client := &stubPlatformClient{
		projectError: notFoundError,
		createError:  restclient.APIError{StatusCode: http.StatusBadRequest, Code: "bad_request", Message: "invalid framework"},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	_, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
	require.Error(testInstance, ensureError)
	require.Equal(testInstance, 1, client.getProjectCalls)
}

func TestEnsureProjectPropagatesLookupFailures(testInstance *testing.T) {
	client := &stubPlatformClient{projectError: restclient.APIError{StatusCode: http.StatusForbidden, Message: "forbidden"}}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	_, ensureError := service.EnsureProject(context.Background(), testProjectNameConstant, testFullRepoConstant)
	var apiError restclient.APIError
	require.True(testInstance, errors.As(ensureError, &apiError))
	require.Zero(testInstance, client.createCalls)
}

func TestTriggerDeploymentRequest(testInstance *testing.T) {
	client := &stubPlatformClient{triggered: vercelapi.Deployment{ID: testDeploymentIDConstant, URL: "demo-site-abc.vercel.app"}}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	triggered, triggerError := service.TriggerDeployment(context.Background(), deployment.ProjectBinding{ProjectName: testProjectNameConstant, RepoID: "42"})
	require.NoError(testInstance, triggerError)
	require.Equal(testInstance, testDeploymentIDConstant, triggered.ID)
	require.Equal(testInstance, vercelapi.CreateDeploymentRequest{
		Name:      testProjectNameConstant,
		Target:    "production",
		GitSource: vercelapi.GitSource{Type: "github", RepoID: "42", Ref: "main"},
	}, client.deployRequests[0])
}

func TestPollDeploymentStatusScenarios(testInstance *testing.T) {
	testCases := []struct {
		name            string
		script          []deploymentStep
		expectedRetries int
		expectedURL     string
		expectedErrorAs func(error) bool
		expectedStates  []string
	}{
		{
			name:            "queued_building_ready",
			script:          []deploymentStep{stateStep("QUEUED", ""), stateStep("BUILDING", ""), stateStep("READY", "demo-site-abc.vercel.app")},
			expectedRetries: 2,
			expectedURL:     "https://demo-site-abc.vercel.app",
			expectedStates:  []string{"QUEUED", "BUILDING", "READY"},
		},
		{
			name:            "building_error",
			script:          []deploymentStep{stateStep("BUILDING", ""), {deployment: vercelapi.Deployment{ID: testDeploymentIDConstant, ReadyState: "ERROR", ErrorMessage: "Build failed"}}},
			expectedRetries: 1,
			expectedErrorAs: func(err error) bool {
				var failedError deployment.DeploymentFailedError
				return errors.As(err, &failedError) && failedError.State == "ERROR" && failedError.Reason == "Build failed"
			},
			expectedStates: []string{"BUILDING", "ERROR"},
		},
		{
			name:            "status_field_canceled",
			script:          []deploymentStep{{deployment: vercelapi.Deployment{ID: testDeploymentIDConstant, Status: "canceled"}}},
			expectedRetries: 0,
			expectedErrorAs: func(err error) bool {
				var failedError deployment.DeploymentFailedError
				return errors.As(err, &failedError) && failedError.State == "CANCELED"
			},
			expectedStates: []string{"CANCELED"},
		},
		{
			name:            "ready_without_url",
			script:          []deploymentStep{stateStep("READY", "")},
			expectedRetries: 0,
			expectedErrorAs: func(err error) bool {
				var integrityError deployment.DeploymentIntegrityError
				return errors.As(err, &integrityError)
			},
			expectedStates: []string{"READY"},
		},
		{
			name:            "transient_fetch_error",
			script:          []deploymentStep{{err: restclient.ParseError{StatusCode: http.StatusOK, Body: "<html>"}}, stateStep("READY", "demo-site-abc.vercel.app")},
			expectedRetries: 1,
			expectedURL:     "https://demo-site-abc.vercel.app",
			expectedStates:  []string{"fetch_error", "READY"},
		},
		{
			name:            "timeout",
			script:          []deploymentStep{stateStep("BUILDING", "")},
			expectedRetries: 3,
			expectedErrorAs: func(err error) bool {
				var timeoutError deployment.PollingTimeoutError
				return errors.As(err, &timeoutError) && timeoutError.Elapsed == 30*time.Second
			},
			expectedStates: []string{"BUILDING", "BUILDING", "BUILDING"},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			client := &stubPlatformClient{script: testCase.script}
			clock := newFakeClock()
			pollObserver := &recordingPollObserver{}
			service := newService(subtest, client, clock, pollObserver, nil)

			result, pollError := service.PollDeploymentStatus(context.Background(), testDeploymentIDConstant, deployment.PollOptions{Timeout: 30 * time.Second, Interval: 10 * time.Second})
			require.Equal(subtest, testCase.expectedRetries, result.Retries)
			require.Len(subtest, clock.sleeps, testCase.expectedRetries)
			require.Equal(subtest, testCase.expectedStates, pollObserver.states)

			if testCase.expectedErrorAs != nil {
				require.Error(subtest, pollError)
				require.True(subtest, testCase.expectedErrorAs(pollError), "unexpected error: %v", pollError)
				return
			}
			require.NoError(subtest, pollError)
			require.Equal(subtest, "READY", result.Status)
			require.Equal(subtest, testCase.expectedURL, result.URL)
		})
	}
}

func TestPollDeploymentStatusAppliesDefaults(testInstance *testing.T) {
	client := &stubPlatformClient{script: []deploymentStep{stateStep("BUILDING", ""), stateStep("READY", "demo.vercel.app")}}
	clock := newFakeClock()
	service := newService(testInstance, client, clock, nil, nil)

	_, pollError := service.PollDeploymentStatus(context.Background(), testDeploymentIDConstant, deployment.PollOptions{})
	require.NoError(testInstance, pollError)
	require.Equal(testInstance, []time.Duration{deployment.DefaultPollInterval}, clock.sleeps)
}

func TestPollDeploymentStatusStopsOnCancellation(testInstance *testing.T) {
	client := &stubPlatformClient{script: []deploymentStep{stateStep("BUILDING", "")}}
	executionContext, cancel := context.WithCancel(context.Background())
	cancel()
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	_, pollError := service.PollDeploymentStatus(executionContext, testDeploymentIDConstant, deployment.PollOptions{Timeout: time.Minute, Interval: time.Second})
	require.ErrorIs(testInstance, pollError, context.Canceled)
}

func TestClassifyDeployment(testInstance *testing.T) {
	testCases := []struct {
		name             string
		deployment       vercelapi.Deployment
		fetchError       error
		expectedDecision deployment.PollDecision
	}{
		{name: "fetch_error", fetchError: errors.New("connection reset"), expectedDecision: deployment.PollDecisionRetry},
		{name: "initializing", deployment: vercelapi.Deployment{ReadyState: "INITIALIZING"}, expectedDecision: deployment.PollDecisionRetry},
		{name: "empty_state", deployment: vercelapi.Deployment{}, expectedDecision: deployment.PollDecisionRetry},
		{name: "ready", deployment: vercelapi.Deployment{ReadyState: "READY", URL: "demo.vercel.app"}, expectedDecision: deployment.PollDecisionSucceeded},
		{name: "ready_lowercase_status", deployment: vercelapi.Deployment{Status: "ready", URL: "demo.vercel.app"}, expectedDecision: deployment.PollDecisionSucceeded},
		{name: "failed", deployment: vercelapi.Deployment{ReadyState: "FAILED"}, expectedDecision: deployment.PollDecisionFailed},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			decision, decisionError := deployment.ClassifyDeployment(testDeploymentIDConstant, testCase.deployment, testCase.fetchError)
			require.Equal(subtest, testCase.expectedDecision, decision)
			require.Equal(subtest, testCase.expectedDecision == deployment.PollDecisionFailed, decisionError != nil)
		})
	}
}

func TestCreateAndDeployReportsReadyRun(testInstance *testing.T) {
	client := &stubPlatformClient{
		projectError:   notFoundError,
		createdProject: vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant, Link: &vercelapi.ProjectLink{Type: "github", RepoID: "42"}},
		triggered:      vercelapi.Deployment{ID: testDeploymentIDConstant, URL: "demo-site-abc.vercel.app"},
		script:         []deploymentStep{stateStep("BUILDING", ""), stateStep("READY", "demo-site-abc.vercel.app")},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	run, deployError := service.CreateAndDeploy(context.Background(), testRepositoryURLConstant)
	require.NoError(testInstance, deployError)
	require.Equal(testInstance, deployment.Run{
		ProjectName:  testProjectNameConstant,
		ProjectID:    testProjectIDConstant,
		Repository:   testFullRepoConstant,
		RepoID:       "42",
		DeploymentID: testDeploymentIDConstant,
		Status:       deployment.StatusReady,
		URL:          "https://demo-site-abc.vercel.app",
		Verified:     true,
		Attempts:     2,
	}, run)
}

func TestCreateAndDeployReportsUnverifiedURLOnTimeout(testInstance *testing.T) {
	client := &stubPlatformClient{
		project:   vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant, Link: &vercelapi.ProjectLink{Type: "github", RepoID: "42"}},
		triggered: vercelapi.Deployment{ID: testDeploymentIDConstant},
		script:    []deploymentStep{stateStep("QUEUED", "")},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	run, deployError := service.CreateAndDeploy(context.Background(), testRepositoryURLConstant)
	require.NoError(testInstance, deployError)
	require.Equal(testInstance, deployment.StatusUnverified, run.Status)
	require.Equal(testInstance, "https://demo-site.vercel.app", run.URL)
	require.False(testInstance, run.Verified)
}

func TestCreateAndDeployPropagatesDeploymentFailure(testInstance *testing.T) {
	client := &stubPlatformClient{
		project:   vercelapi.Project{ID: testProjectIDConstant, Name: testProjectNameConstant, Link: &vercelapi.ProjectLink{Type: "github", RepoID: "42"}},
		triggered: vercelapi.Deployment{ID: testDeploymentIDConstant},
		script:    []deploymentStep{stateStep("ERROR", "")},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	run, deployError := service.CreateAndDeploy(context.Background(), testRepositoryURLConstant)
	var failedError deployment.DeploymentFailedError
	require.True(testInstance, errors.As(deployError, &failedError))
	require.Equal(testInstance, "ERROR", run.Status)
	require.Empty(testInstance, run.URL)
	require.False(testInstance, run.Verified)
}

func TestCreateAndDeployRejectsMissingDeploymentID(testInstance *testing.T) {
	client := &stubPlatformClient{
		project: vercelapi.Project{ID: testProjectIDConstant, Link: &vercelapi.ProjectLink{Type: "github", RepoID: "42"}},
	}
	service := newService(testInstance, client, newFakeClock(), nil, nil)

	_, deployError := service.CreateAndDeploy(context.Background(), testRepositoryURLConstant)
	require.ErrorIs(testInstance, deployError, deployment.ErrDeploymentIDMissing)
	require.Zero(testInstance, client.statusCalls)
}
