package restclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	apiErrorTemplateConstant           = "%s %s failed with status %d: %s"
	apiErrorWithCodeTemplateConstant   = "%s %s failed with status %d (%s): %s"
	synthesizedMessageTemplateConstant = "empty response body (%s)"
	parseErrorTemplateConstant         = "%s %s returned an unparseable body (status %d): %s"
	requestErrorTemplateConstant       = "%s %s request failed: %v"
	maximumReportedBodyLengthConstant  = 512
	truncatedBodySuffixConstant        = "..."
)

// ErrBaseURLNotConfigured indicates the client was constructed without an API base URL.
var ErrBaseURLNotConfigured = errors.New("restclient: base url not configured")

// APIError reports a non-success HTTP status whose body was either empty or a parseable error document.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
}

// Error formats the status and platform message.
func (apiError APIError) Error() string {
	if len(apiError.Code) > 0 {
		return fmt.Sprintf(apiErrorWithCodeTemplateConstant, apiError.Method, apiError.Path, apiError.StatusCode, apiError.Code, apiError.Message)
	}
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.Method, apiError.Path, apiError.StatusCode, apiError.Message)
}

// ParseError reports a response body that could not be decoded, carrying the raw status and body.
type ParseError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Cause      error
}

// Error includes the raw body, truncated for readability.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Method, parseError.Path, parseError.StatusCode, truncateBody(parseError.Body))
}

// Unwrap exposes the decoding failure.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// RequestError reports a transport failure before any HTTP status was received.
type RequestError struct {
	Method string
	Path   string
	Cause  error
}

// Error describes the transport failure.
func (requestError RequestError) Error() string {
	return fmt.Sprintf(requestErrorTemplateConstant, requestError.Method, requestError.Path, requestError.Cause)
}

// Unwrap exposes the transport failure.
func (requestError RequestError) Unwrap() error {
	return requestError.Cause
}

// StatusCode extracts the HTTP status carried by an APIError or ParseError, or zero.
func StatusCode(err error) int {
	var apiError APIError
	if errors.As(err, &apiError) {
		return apiError.StatusCode
	}
	var parseError ParseError
	if errors.As(err, &parseError) {
		return parseError.StatusCode
	}
	return 0
}

func synthesizedMessage(statusCode int) string {
	return fmt.Sprintf(synthesizedMessageTemplateConstant, strings.TrimSpace(fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))))
}

func truncateBody(body string) string {
	if len(body) <= maximumReportedBodyLengthConstant {
		return body
	}
	return body[:maximumReportedBodyLengthConstant] + truncatedBodySuffixConstant
}
