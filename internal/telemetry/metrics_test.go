package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/temirov/shipyard/internal/telemetry"
)

func TestMetricsRecordAndWriteTextfile(testInstance *testing.T) {
	metrics, metricsError := telemetry.NewMetrics()
	require.NoError(testInstance, metricsError)

	metrics.ObserveRequest("vercel.get_deployment", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	metrics.ObserveRequest("vercel.get_deployment", http.MethodGet, 0, time.Millisecond)
	metrics.ObserveStep("bootstrap", "push", time.Second, nil)
	metrics.ObserveWorkflow("deploy", telemetry.OutcomeLabel(errors.New("failed")))
	metrics.ObservePollAttempt("building")
	metrics.ObservePollAttempt("")
	metrics.ObserveCommand("git", "push", "nonzero_exit")

	seriesCount, gatherError := testutil.GatherAndCount(metrics.Registry())
	require.NoError(testInstance, gatherError)
	require.Equal(testInstance, 8, seriesCount)

	metricsPath := filepath.Join(testInstance.TempDir(), "shipyard.prom")
	require.NoError(testInstance, metrics.WriteTextfile(metricsPath))

	contents, readError := os.ReadFile(metricsPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(contents), `shipyard_api_requests_total{method="GET",operation="vercel.get_deployment",status="200"} 1`)
	require.Contains(testInstance, string(contents), `status="transport_error"`)
	require.Contains(testInstance, string(contents), `shipyard_workflow_runs_total{outcome="failure",workflow="deploy"} 1`)
	require.Contains(testInstance, string(contents), `shipyard_deployment_poll_attempts_total{state="BUILDING"} 1`)
	require.Contains(testInstance, string(contents), `shipyard_deployment_poll_attempts_total{state="unknown"} 1`)
	require.Contains(testInstance, string(contents), `shipyard_command_runs_total{command="git",outcome="nonzero_exit",subcommand="push"} 1`)
}

func TestMetricsWriteTextfileRequiresPath(testInstance *testing.T) {
	metrics, metricsError := telemetry.NewMetrics()
	require.NoError(testInstance, metricsError)
	require.ErrorIs(testInstance, metrics.WriteTextfile(" "), telemetry.ErrMetricsFileNotConfigured)
}

func TestNilMetricsAreInert(testInstance *testing.T) {
	var metrics *telemetry.Metrics
	require.NotPanics(testInstance, func() {
		metrics.ObserveRequest("operation", http.MethodGet, http.StatusOK, time.Millisecond)
		metrics.ObserveStep("bootstrap", "init", time.Millisecond, nil)
		metrics.ObserveWorkflow("bootstrap", "success")
		metrics.ObservePollAttempt("READY")
		metrics.ObserveCommand("git", "init", "success")
	})
	require.NoError(testInstance, metrics.WriteTextfile("ignored"))
	require.Nil(testInstance, metrics.Registry())
}

func TestSetupTracingWithoutEndpointIsNoop(testInstance *testing.T) {
	provider, shutdown, setupError := telemetry.SetupTracing(context.Background(), telemetry.TracingOptions{ServiceName: "shipyard"})
	require.NoError(testInstance, setupError)
	require.NotNil(testInstance, provider)

	_, span := telemetry.Tracer(provider).Start(context.Background(), "step")
	require.False(testInstance, span.SpanContext().IsValid())
	span.End()

	require.NoError(testInstance, shutdown(context.Background()))
	require.NotNil(testInstance, telemetry.Tracer(nil))
}
