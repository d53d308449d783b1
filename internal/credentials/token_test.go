package credentials

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mapLookup(values map[string]string) EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := values[key]
		return value, exists
	}
}

func TestGitHubTokenPrefersExplicitValue(t *testing.T) {
	resolver := NewResolver(mapLookup(map[string]string{EnvGitHubToken: "from-env"}))

	token, found := resolver.GitHubToken("  explicit ")
	require.True(t, found)
	require.Equal(t, "explicit", token)
}

func TestGitHubTokenFollowsPreferenceOrder(t *testing.T) {
	resolver := NewResolver(mapLookup(map[string]string{
		EnvGitHubCLIToken: " ",
		EnvGitHubToken:    "github-token",
		EnvGitHubAPIToken: "api-token",
	}))

	token, found := resolver.GitHubToken("")
	require.True(t, found)
	require.Equal(t, "github-token", token)
}

func TestVercelTokenMissing(t *testing.T) {
	resolver := NewResolver(mapLookup(map[string]string{EnvGitHubToken: "github-token"}))

	token, found := resolver.VercelToken("")
	require.False(t, found)
	require.Empty(t, token)
}
