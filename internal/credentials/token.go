// Package credentials resolves platform access tokens from explicit values or the process environment.
package credentials

import (
	"os"
	"strings"
)

// Environment variable names consulted for platform tokens.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
	EnvVercelToken    = "VERCEL_TOKEN"
)

var gitHubTokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

var vercelTokenPreference = []string{
	EnvVercelToken,
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// Resolver picks the first non-empty token among an explicit value and the environment.
type Resolver struct {
	lookup EnvironmentLookup
}

// NewResolver constructs a Resolver. A nil lookup reads the process environment.
func NewResolver(lookup EnvironmentLookup) Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return Resolver{lookup: lookup}
}

// GitHubToken returns the explicit token when set, otherwise the first GitHub token variable found.
func (resolver Resolver) GitHubToken(explicitToken string) (string, bool) {
	return resolver.resolve(explicitToken, gitHubTokenPreference)
}

// VercelToken returns the explicit token when set, otherwise VERCEL_TOKEN.
func (resolver Resolver) VercelToken(explicitToken string) (string, bool) {
	return resolver.resolve(explicitToken, vercelTokenPreference)
}

func (resolver Resolver) resolve(explicitToken string, preference []string) (string, bool) {
	if trimmedToken := strings.TrimSpace(explicitToken); len(trimmedToken) > 0 {
		return trimmedToken, true
	}
	lookup := resolver.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range preference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, true
		}
	}
	return "", false
}
