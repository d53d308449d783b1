package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespaceConstant             = "shipyard"
	apiSubsystemConstant                 = "api"
	workflowSubsystemConstant            = "workflow"
	deploymentSubsystemConstant          = "deployment"
	commandSubsystemConstant             = "command"
	commandLabelConstant                 = "command"
	subcommandLabelConstant              = "subcommand"
	operationLabelConstant               = "operation"
	methodLabelConstant                  = "method"
	statusLabelConstant                  = "status"
	workflowLabelConstant                = "workflow"
	stepLabelConstant                    = "step"
	outcomeLabelConstant                 = "outcome"
	stateLabelConstant                   = "state"
	outcomeSuccessConstant               = "success"
	outcomeFailureConstant               = "failure"
	transportFailureStatusConstant       = "transport_error"
	unknownStateConstant                 = "unknown"
	registerMetricsErrorTemplateConstant = "register metrics: %w"
	writeTextfileErrorTemplateConstant   = "write metrics textfile %s: %w"
)

var histogramBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 300}

// ErrMetricsFileNotConfigured indicates WriteTextfile was called without a destination.
var ErrMetricsFileNotConfigured = errors.New("telemetry: metrics file not configured")

// Metrics collects workflow counters and latencies on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	stepDuration       *prometheus.HistogramVec
	workflowRuns       *prometheus.CounterVec
	pollAttempts       *prometheus.CounterVec
	commandRuns        *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Subsystem: apiSubsystemConstant,
			Name:      "requests_total",
			Help:      "Count of platform API requests by operation and status",
		}, []string{operationLabelConstant, methodLabelConstant, statusLabelConstant}),
		apiRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespaceConstant,
			Subsystem: apiSubsystemConstant,
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of platform API requests",
			Buckets:   histogramBuckets,
		}, []string{operationLabelConstant}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespaceConstant,
			Subsystem: workflowSubsystemConstant,
			Name:      "step_duration_seconds",
			Help:      "Duration of workflow steps by outcome",
			Buckets:   histogramBuckets,
		}, []string{workflowLabelConstant, stepLabelConstant, outcomeLabelConstant}),
		workflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Subsystem: workflowSubsystemConstant,
			Name:      "runs_total",
			Help:      "Number of workflow runs by outcome",
		}, []string{workflowLabelConstant, outcomeLabelConstant}),
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Subsystem: deploymentSubsystemConstant,
			Name:      "poll_attempts_total",
			Help:      "Deployment status checks by observed state",
		}, []string{stateLabelConstant}),
		commandRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Subsystem: commandSubsystemConstant,
			Name:      "runs_total",
			Help:      "External command invocations by subcommand and outcome",
		}, []string{commandLabelConstant, subcommandLabelConstant, outcomeLabelConstant}),
	}

	collectors := []prometheus.Collector{metrics.apiRequests, metrics.apiRequestDuration, metrics.stepDuration, metrics.workflowRuns, metrics.pollAttempts, metrics.commandRuns}
	for _, collector := range collectors {
		if registerError := metrics.registry.Register(collector); registerError != nil {
			return nil, fmt.Errorf(registerMetricsErrorTemplateConstant, registerError)
		}
	}
	return metrics, nil
}

// Registry exposes the underlying registry.
func (metrics *Metrics) Registry() *prometheus.Registry {
	if metrics == nil {
		return nil
	}
	return metrics.registry
}

// ObserveRequest records one API exchange. A zero status code denotes a transport failure.
func (metrics *Metrics) ObserveRequest(operation string, method string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	status := transportFailureStatusConstant
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	metrics.apiRequests.WithLabelValues(operation, method, status).Inc()
	metrics.apiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveStep records the duration and outcome of one workflow step.
func (metrics *Metrics) ObserveStep(workflow string, step string, duration time.Duration, stepError error) {
	if metrics == nil {
		return
	}
	metrics.stepDuration.WithLabelValues(workflow, step, outcomeLabel(stepError)).Observe(duration.Seconds())
}

// ObserveWorkflow records the outcome of one workflow run.
func (metrics *Metrics) ObserveWorkflow(workflow string, outcome string) {
	if metrics == nil {
		return
	}
	metrics.workflowRuns.WithLabelValues(workflow, outcome).Inc()
}

// ObserveCommand records one finished external command such as "git push".
func (metrics *Metrics) ObserveCommand(command string, subcommand string, outcome string) {
	if metrics == nil {
		return
	}
	metrics.commandRuns.WithLabelValues(command, subcommand, outcome).Inc()
}

// ObservePollAttempt records one deployment status check.
func (metrics *Metrics) ObservePollAttempt(state string) {
	if metrics == nil {
		return
	}
	normalizedState := strings.ToUpper(strings.TrimSpace(state))
	if len(normalizedState) == 0 {
		normalizedState = unknownStateConstant
	}
	metrics.pollAttempts.WithLabelValues(normalizedState).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (metrics *Metrics) WriteTextfile(path string) error {
	if metrics == nil {
		return nil
	}
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return ErrMetricsFileNotConfigured
	}
	if writeError := prometheus.WriteToTextfile(trimmedPath, metrics.registry); writeError != nil {
		return fmt.Errorf(writeTextfileErrorTemplateConstant, trimmedPath, writeError)
	}
	return nil
}

// OutcomeLabel maps an error to the success/failure label used by the counters.
func OutcomeLabel(err error) string {
	return outcomeLabel(err)
}

func outcomeLabel(err error) string {
	if err != nil {
		return outcomeFailureConstant
	}
	return outcomeSuccessConstant
}
