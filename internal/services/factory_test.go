package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/shipyard/internal/services"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/telemetry"
)

const (
	testRunIdentifierConstant = "run-42"
	testGitHubTokenConstant   = "ghp-token"
	testVercelTokenConstant   = "vercel-token"
	testTeamIDConstant        = "team_abc"
	testAccountConstant       = "octocat"
	testRepositoryConstant    = "demo-site"
	testUserAgentConstant     = "shipyard/test"
)

type capturedRequest struct {
	method        string
	path          string
	teamID        string
	authorization string
	runIdentifier string
	userAgent     string
	accept        string
}

type recordingHandler struct {
	mutex     sync.Mutex
	requests  []capturedRequest
	responses map[string]any
}

func (handler *recordingHandler) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	handler.mutex.Lock()
	handler.requests = append(handler.requests, capturedRequest{
		method:        request.Method,
		path:          request.URL.Path,
		teamID:        request.URL.Query().Get("teamId"),
		authorization: request.Header.Get("Authorization"),
		runIdentifier: request.Header.Get(services.RunIdentifierHeader),
		userAgent:     request.Header.Get("User-Agent"),
		accept:        request.Header.Get("Accept"),
	})
	handler.mutex.Unlock()

	responseBody, known := handler.responses[request.Method+" "+request.URL.Path]
	if !known {
		responseWriter.WriteHeader(http.StatusNotFound)
		_, _ = responseWriter.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
		return
	}
	responseWriter.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(responseWriter).Encode(responseBody)
}

type instantClock struct {
	current time.Time
}

func (clock *instantClock) Now() time.Time {
	return clock.current
}

func (clock *instantClock) Sleep(_ context.Context, duration time.Duration) error {
	clock.current = clock.current.Add(duration)
	return nil
}

func emptyEnvironment(string) (string, bool) {
	return "", false
}

func TestFactoryDeploymentServiceTalksToConfiguredPlatform(testInstance *testing.T) {
	handler := &recordingHandler{responses: map[string]any{
		"GET /v9/projects/demo-site": map[string]any{
			"id":   "prj_1",
			"name": testRepositoryConstant,
			"link": map[string]any{"type": "github", "org": testAccountConstant, "repo": testRepositoryConstant, "repoId": 987},
		},
		"POST /v13/deployments":      map[string]any{"id": "dpl_1", "url": "demo-site-abc.vercel.app", "readyState": "QUEUED"},
		"GET /v13/deployments/dpl_1": map[string]any{"id": "dpl_1", "url": "demo-site-abc.vercel.app", "readyState": "READY"},
	}}
	server := httptest.NewServer(handler)
	testInstance.Cleanup(server.Close)

	metrics, metricsError := telemetry.NewMetrics()
	require.NoError(testInstance, metricsError)

	factory := services.NewFactory(services.FactoryDependencies{
		HTTPClient:    server.Client(),
		Metrics:       metrics,
		Clock:         &instantClock{current: time.Unix(0, 0)},
		UserAgent:     testUserAgentConstant,
		RunIdentifier: testRunIdentifierConstant,
	})
	require.Equal(testInstance, testRunIdentifierConstant, factory.RunIdentifier())

	configuration := settings.New(settings.Source{
		Vercel: settings.VercelSource{Token: testVercelTokenConstant, APIURL: server.URL, TeamID: testTeamIDConstant},
	}, emptyEnvironment)

	deploymentService, serviceError := factory.DeploymentService(configuration, zap.NewNop())
	require.NoError(testInstance, serviceError)

	run, deployError := deploymentService.CreateAndDeploy(context.Background(), "https://github.com/octocat/demo-site.git")
	require.NoError(testInstance, deployError)
	require.Equal(testInstance, "READY", run.Status)
	require.Equal(testInstance, "https://demo-site-abc.vercel.app", run.URL)
	require.Equal(testInstance, "987", run.RepoID)
	require.True(testInstance, run.Verified)

	require.Len(testInstance, handler.requests, 3)
	for _, request := range handler.requests {
		require.Equal(testInstance, testTeamIDConstant, request.teamID)
		require.Equal(testInstance, "Bearer "+testVercelTokenConstant, request.authorization)
		require.Equal(testInstance, testRunIdentifierConstant, request.runIdentifier)
		require.Equal(testInstance, testUserAgentConstant, request.userAgent)
	}

	requestSeries, gatherError := testutil.GatherAndCount(metrics.Registry(), "shipyard_api_requests_total")
	require.NoError(testInstance, gatherError)
	require.Equal(testInstance, 3, requestSeries)

	pollSeries, pollGatherError := testutil.GatherAndCount(metrics.Registry(), "shipyard_deployment_poll_attempts_total")
	require.NoError(testInstance, pollGatherError)
	require.Equal(testInstance, 1, pollSeries)
}

func TestFactoryBootstrapServiceCreatesRepositoryThroughGitHubAPI(testInstance *testing.T) {
	handler := &recordingHandler{responses: map[string]any{
		"POST /user/repos": map[string]any{
			"id":        1,
			"name":      testRepositoryConstant,
			"full_name": "octocat/demo-site",
			"html_url":  "https://github.com/octocat/demo-site",
			"owner":     map[string]any{"login": testAccountConstant, "type": "User"},
		},
	}}
	server := httptest.NewServer(handler)
	testInstance.Cleanup(server.Close)

	factory := services.NewFactory(services.FactoryDependencies{HTTPClient: server.Client(), RunIdentifier: testRunIdentifierConstant})
	configuration := settings.New(settings.Source{
		GitHub: settings.GitHubSource{Account: testAccountConstant, Token: testGitHubTokenConstant, APIURL: server.URL},
	}, emptyEnvironment)

	bootstrapService, serviceError := factory.BootstrapService(configuration, nil)
	require.NoError(testInstance, serviceError)

	repository, createError := bootstrapService.CreateRemote(context.Background(), testRepositoryConstant)
	require.NoError(testInstance, createError)
	require.Equal(testInstance, "https://github.com/octocat/demo-site", repository.HTMLURL)

	require.Len(testInstance, handler.requests, 1)
	require.Equal(testInstance, http.MethodPost, handler.requests[0].method)
	require.Equal(testInstance, "Bearer "+testGitHubTokenConstant, handler.requests[0].authorization)
	require.Equal(testInstance, "application/vnd.github+json", handler.requests[0].accept)
	require.Equal(testInstance, testRunIdentifierConstant, handler.requests[0].runIdentifier)
}

func TestFactoryRequiresCredentials(testInstance *testing.T) {
	factory := services.NewFactory(services.FactoryDependencies{})
	require.NotEmpty(testInstance, factory.RunIdentifier())

	configuration := settings.New(settings.Source{GitHub: settings.GitHubSource{Account: testAccountConstant}}, emptyEnvironment)

	_, bootstrapError := factory.BootstrapService(configuration, zap.NewNop())
	var bootstrapConfigurationError settings.ConfigurationError
	require.ErrorAs(testInstance, bootstrapError, &bootstrapConfigurationError)
	require.Equal(testInstance, settings.FieldGitHubToken, bootstrapConfigurationError.Field)

	_, deploymentError := factory.DeploymentService(configuration, zap.NewNop())
	var deploymentConfigurationError settings.ConfigurationError
	require.ErrorAs(testInstance, deploymentError, &deploymentConfigurationError)
	require.Equal(testInstance, settings.FieldVercelToken, deploymentConfigurationError.Field)

	_, publishError := factory.PublishService(configuration, zap.NewNop())
	require.ErrorAs(testInstance, publishError, &bootstrapConfigurationError)
}
