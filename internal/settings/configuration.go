package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/temirov/shipyard/internal/credentials"
)

const (
	githubSectionKeyConstant           = "github"
	vercelSectionKeyConstant           = "vercel"
	deploymentSectionKeyConstant       = "deployment"
	keySeparatorConstant               = "."
	accountKeyConstant                 = "account"
	organizationKeyConstant            = "organization"
	tokenKeyConstant                   = "token"
	hostKeyConstant                    = "host"
	apiURLKeyConstant                  = "api_url"
	teamIDKeyConstant                  = "team_id"
	frameworkKeyConstant               = "framework"
	pollTimeoutKeyConstant             = "poll_timeout"
	pollIntervalKeyConstant            = "poll_interval"
	defaultGitHubHostConstant          = "github.com"
	defaultGitHubAPIURLConstant        = "https://api.github.com"
	defaultVercelAPIURLConstant        = "https://api.vercel.com"
	defaultVercelFrameworkConstant     = "vite"
	defaultPollTimeoutConstant         = 5 * time.Minute
	defaultPollIntervalConstant        = 10 * time.Second
	noReplyEmailTemplateConstant       = "%s@users.noreply.%s"
	environmentGitHubUsernameConstant  = "GITHUB_USERNAME"
	environmentGitHubOrganization      = "GITHUB_ORGANIZATION"
	missingOwnerMessageConstant        = "neither a GitHub account nor an organization is configured"
	missingAccountMessageConstant      = "a GitHub account is required to derive the committer identity"
	missingGitHubTokenMessageConstant  = "a GitHub access token is required"
	missingVercelTokenMessageConstant  = "a Vercel access token is required"
	configurationErrorTemplateConstant = "configuration error (%s): %s"
)

// Configuration field identifiers reported by ConfigurationError.
const (
	FieldGitHubAccount = githubSectionKeyConstant + keySeparatorConstant + accountKeyConstant
	FieldGitHubOwner   = githubSectionKeyConstant + keySeparatorConstant + organizationKeyConstant
	FieldGitHubToken   = githubSectionKeyConstant + keySeparatorConstant + tokenKeyConstant
	FieldVercelToken   = vercelSectionKeyConstant + keySeparatorConstant + tokenKeyConstant
)

// ConfigurationError reports a required identity or credential that is not configured.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error describes the missing configuration.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Field, configurationError.Message)
}

// Source is the persisted configuration document.
type Source struct {
	GitHub     GitHubSource     `mapstructure:"github"`
	Vercel     VercelSource     `mapstructure:"vercel"`
	Deployment DeploymentSource `mapstructure:"deployment"`
}

// GitHubSource configures the source host.
type GitHubSource struct {
	Account      string `mapstructure:"account"`
	Organization string `mapstructure:"organization"`
	Token        string `mapstructure:"token"`
	Host         string `mapstructure:"host"`
	APIURL       string `mapstructure:"api_url"`
}

// VercelSource configures the deployment host.
type VercelSource struct {
	Token     string `mapstructure:"token"`
	APIURL    string `mapstructure:"api_url"`
	TeamID    string `mapstructure:"team_id"`
	Framework string `mapstructure:"framework"`
}

// DeploymentSource configures deployment polling.
type DeploymentSource struct {
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// DefaultConfigurationValues returns configuration defaults keyed for the configuration loader.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		joinKeys(githubSectionKeyConstant, accountKeyConstant):          "",
		joinKeys(githubSectionKeyConstant, organizationKeyConstant):     "",
		joinKeys(githubSectionKeyConstant, tokenKeyConstant):            "",
		joinKeys(githubSectionKeyConstant, hostKeyConstant):             defaultGitHubHostConstant,
		joinKeys(githubSectionKeyConstant, apiURLKeyConstant):           defaultGitHubAPIURLConstant,
		joinKeys(vercelSectionKeyConstant, tokenKeyConstant):            "",
		joinKeys(vercelSectionKeyConstant, apiURLKeyConstant):           defaultVercelAPIURLConstant,
		joinKeys(vercelSectionKeyConstant, teamIDKeyConstant):           "",
		joinKeys(vercelSectionKeyConstant, frameworkKeyConstant):        defaultVercelFrameworkConstant,
		joinKeys(deploymentSectionKeyConstant, pollTimeoutKeyConstant):  defaultPollTimeoutConstant.String(),
		joinKeys(deploymentSectionKeyConstant, pollIntervalKeyConstant): defaultPollIntervalConstant.String(),
	}
}

// RepositoryOwner identifies the namespace repositories are created in.
type RepositoryOwner struct {
	Name           string
	IsOrganization bool
}

// Identity is a git committer identity.
type Identity struct {
	Name  string
	Email string
}

// Configuration is the resolved, read-only runtime configuration.
type Configuration struct {
	gitHubAccount      string
	gitHubOrganization string
	gitHubToken        string
	gitHubHost         string
	gitHubAPIURL       string
	vercelToken        string
	vercelAPIURL       string
	vercelTeamID       string
	vercelFramework    string
	pollTimeout        time.Duration
	pollInterval       time.Duration
}

// New resolves defaults and credentials from source and the environment.
// A nil lookup reads the process environment.
func New(source Source, lookup credentials.EnvironmentLookup) Configuration {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	resolver := credentials.NewResolver(lookup)
	environmentValue := func(key string) string {
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}

	configuration := Configuration{
		gitHubAccount:      firstNonEmpty(source.GitHub.Account, environmentValue(environmentGitHubUsernameConstant)),
		gitHubOrganization: firstNonEmpty(source.GitHub.Organization, environmentValue(environmentGitHubOrganization)),
		gitHubHost:         firstNonEmpty(source.GitHub.Host, defaultGitHubHostConstant),
		gitHubAPIURL:       strings.TrimRight(firstNonEmpty(source.GitHub.APIURL, defaultGitHubAPIURLConstant), "/"),
		vercelAPIURL:       strings.TrimRight(firstNonEmpty(source.Vercel.APIURL, defaultVercelAPIURLConstant), "/"),
		vercelTeamID:       strings.TrimSpace(source.Vercel.TeamID),
		vercelFramework:    firstNonEmpty(source.Vercel.Framework, defaultVercelFrameworkConstant),
		pollTimeout:        source.Deployment.PollTimeout,
		pollInterval:       source.Deployment.PollInterval,
	}
	configuration.gitHubToken, _ = resolver.GitHubToken(source.GitHub.Token)
	configuration.vercelToken, _ = resolver.VercelToken(source.Vercel.Token)

	if configuration.pollTimeout <= 0 {
		configuration.pollTimeout = defaultPollTimeoutConstant
	}
	if configuration.pollInterval <= 0 {
		configuration.pollInterval = defaultPollIntervalConstant
	}
	return configuration
}

// GitHubAccount returns the personal account identifier.
func (configuration Configuration) GitHubAccount() string {
	return configuration.gitHubAccount
}

// GitHubOrganization returns the organization identifier, if any.
func (configuration Configuration) GitHubOrganization() string {
	return configuration.gitHubOrganization
}

// GitHubHost returns the web host of the source platform, e.g. github.com.
func (configuration Configuration) GitHubHost() string {
	return configuration.gitHubHost
}

// GitHubAPIURL returns the REST base URL of the source platform.
func (configuration Configuration) GitHubAPIURL() string {
	return configuration.gitHubAPIURL
}

// RepositoryOwner selects the organization when it is set and differs from the account, else the account.
func (configuration Configuration) RepositoryOwner() (RepositoryOwner, error) {
	if len(configuration.gitHubOrganization) > 0 && configuration.gitHubOrganization != configuration.gitHubAccount {
		return RepositoryOwner{Name: configuration.gitHubOrganization, IsOrganization: true}, nil
	}
	if len(configuration.gitHubAccount) > 0 {
		return RepositoryOwner{Name: configuration.gitHubAccount}, nil
	}
	return RepositoryOwner{}, ConfigurationError{Field: FieldGitHubOwner, Message: missingOwnerMessageConstant}
}

// CommitterIdentity derives <account> / <account>@users.noreply.<host>.
func (configuration Configuration) CommitterIdentity() (Identity, error) {
	if len(configuration.gitHubAccount) == 0 {
		return Identity{}, ConfigurationError{Field: FieldGitHubAccount, Message: missingAccountMessageConstant}
	}
	return Identity{
		Name:  configuration.gitHubAccount,
		Email: fmt.Sprintf(noReplyEmailTemplateConstant, configuration.gitHubAccount, configuration.gitHubHost),
	}, nil
}

// GitHubToken returns the source-host credential.
func (configuration Configuration) GitHubToken() (string, error) {
	if len(configuration.gitHubToken) == 0 {
		return "", ConfigurationError{Field: FieldGitHubToken, Message: missingGitHubTokenMessageConstant}
	}
	return configuration.gitHubToken, nil
}

// VercelToken returns the deployment-host credential.
func (configuration Configuration) VercelToken() (string, error) {
	if len(configuration.vercelToken) == 0 {
		return "", ConfigurationError{Field: FieldVercelToken, Message: missingVercelTokenMessageConstant}
	}
	return configuration.vercelToken, nil
}

// VercelAPIURL returns the REST base URL of the deployment platform.
func (configuration Configuration) VercelAPIURL() string {
	return configuration.vercelAPIURL
}

// VercelTeamID returns the team scope for deployment-host requests, if any.
func (configuration Configuration) VercelTeamID() string {
	return configuration.vercelTeamID
}

// VercelFramework returns the framework hint used when creating projects.
func (configuration Configuration) VercelFramework() string {
	return configuration.vercelFramework
}

// PollTimeout bounds deployment status polling.
func (configuration Configuration) PollTimeout() time.Duration {
	return configuration.pollTimeout
}

// PollInterval is the fixed wait between deployment status checks.
func (configuration Configuration) PollInterval() time.Duration {
	return configuration.pollInterval
}

// WithPolling returns a copy with overridden polling bounds; non-positive values keep the current ones.
func (configuration Configuration) WithPolling(timeout time.Duration, interval time.Duration) Configuration {
	if timeout > 0 {
		configuration.pollTimeout = timeout
	}
	if interval > 0 {
		configuration.pollInterval = interval
	}
	return configuration
}

func joinKeys(section string, key string) string {
	return section + keySeparatorConstant + key
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmedValue := strings.TrimSpace(value); len(trimmedValue) > 0 {
			return trimmedValue
		}
	}
	return ""
}
