package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/shipyard/internal/utils"
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, configurationPathAvailable := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, configurationPathAvailable)

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/shipyard/config.yaml")
	executionContext = accessor.WithRunIdentifier(executionContext, "run-7")

	configurationFilePath, configurationPathAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationPathAvailable)
	require.Equal(testInstance, "/etc/shipyard/config.yaml", configurationFilePath)

	runIdentifier, runIdentifierAvailable := accessor.RunIdentifier(executionContext)
	require.True(testInstance, runIdentifierAvailable)
	require.Equal(testInstance, "run-7", runIdentifier)
}

func TestCommandContextAccessorToleratesNilContext(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithRunIdentifier(nil, "run-8")
	runIdentifier, available := accessor.RunIdentifier(executionContext)
	require.True(testInstance, available)
	require.Equal(testInstance, "run-8", runIdentifier)

	_, nilAvailable := accessor.RunIdentifier(nil)
	require.False(testInstance, nilAvailable)
}
