package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/shipyard/internal/utils"
)

const (
	testServiceNameConstant = "shipyard-test"
	testLogMessageConstant  = "logger_factory_test_message"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectError         bool
		expectStructuredLog bool
		expectEntry         bool
	}{
		{
			name:                "debug_structured",
			requestedLogLevel:   utils.LogLevelDebug,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
			expectEntry:         true,
		},
		{
			name:               "info_console",
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormatConsole,
			expectEntry:        true,
		},
		{
			name:                "mixed_case_names",
			requestedLogLevel:   utils.LogLevel(" INFO "),
			requestedLogFormat:  utils.LogFormat("Structured"),
			expectStructuredLog: true,
			expectEntry:         true,
		},
		{
			name:                "error_level_filters_info",
			requestedLogLevel:   utils.LogLevelError,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:               "unsupported_log_level",
			requestedLogLevel:  utils.LogLevel("verbose"),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               "unsupported_log_format",
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat("xml"),
			expectError:        true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			loggerFactory := utils.NewLoggerFactory(testServiceNameConstant)

			pipeReader, pipeWriter, pipeError := os.Pipe()
			require.NoError(subtest, pipeError)

			originalStderr := os.Stderr
			os.Stderr = pipeWriter
			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			os.Stderr = originalStderr

			if testCase.expectError {
				require.Error(subtest, creationError)
				require.Nil(subtest, logger)
				require.NoError(subtest, pipeWriter.Close())
				require.NoError(subtest, pipeReader.Close())
				return
			}

			require.NoError(subtest, creationError)
			require.NotNil(subtest, logger)

			logger.Info(testLogMessageConstant)
			syncError := logger.Sync()
			if syncError != nil {
				require.True(subtest, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
			}
			require.NoError(subtest, pipeWriter.Close())

			capturedOutput, readError := io.ReadAll(pipeReader)
			require.NoError(subtest, readError)
			require.NoError(subtest, pipeReader.Close())

			trimmedOutput := bytes.TrimSpace(capturedOutput)
			if !testCase.expectEntry {
				require.Empty(subtest, trimmedOutput)
				return
			}

			require.Contains(subtest, string(trimmedOutput), testLogMessageConstant)
			require.Contains(subtest, string(trimmedOutput), testServiceNameConstant)
			require.Equal(subtest, testCase.expectStructuredLog, json.Valid(trimmedOutput))
		})
	}
}
