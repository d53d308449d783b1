package cli

import (
	_ "embed"

	"github.com/temirov/shipyard/internal/credentials"
	"github.com/temirov/shipyard/internal/settings"
	"github.com/temirov/shipyard/internal/utils"
)

const (
	commonConfigurationKeyConstant        = "common"
	commonLogLevelConfigKeyConstant       = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant      = commonConfigurationKeyConstant + ".log_format"
	telemetryConfigurationKeyConstant     = "telemetry"
	telemetryMetricsFileConfigKeyConstant = telemetryConfigurationKeyConstant + ".metrics_file"
	telemetryEndpointConfigKeyConstant    = telemetryConfigurationKeyConstant + ".otlp_endpoint"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common     ApplicationCommonConfiguration    `mapstructure:"common"`
	GitHub     settings.GitHubSource             `mapstructure:"github"`
	Vercel     settings.VercelSource             `mapstructure:"vercel"`
	Deployment settings.DeploymentSource         `mapstructure:"deployment"`
	Telemetry  ApplicationTelemetryConfiguration `mapstructure:"telemetry"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationTelemetryConfiguration controls metrics and trace export.
type ApplicationTelemetryConfiguration struct {
	MetricsFile  string `mapstructure:"metrics_file"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// EmbeddedDefaultConfiguration returns the embedded default configuration data and type identifier.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	duplicatedContent := make([]byte, len(embeddedDefaultConfigurationContent))
	copy(duplicatedContent, embeddedDefaultConfigurationContent)
	return duplicatedContent, configurationTypeConstant
}

func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:       string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:      string(utils.LogFormatStructured),
		telemetryMetricsFileConfigKeyConstant: "",
		telemetryEndpointConfigKeyConstant:    "",
	}
	for configurationKey, configurationValue := range settings.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}

// Settings converts the loaded document into the immutable workflow configuration.
func (configuration ApplicationConfiguration) Settings(lookup credentials.EnvironmentLookup) settings.Configuration {
	return settings.New(settings.Source{
		GitHub:     configuration.GitHub,
		Vercel:     configuration.Vercel,
		Deployment: configuration.Deployment,
	}, lookup)
}
