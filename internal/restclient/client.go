package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	authorizationHeaderConstant        = "Authorization"
	contentTypeHeaderConstant          = "Content-Type"
	acceptHeaderConstant               = "Accept"
	userAgentHeaderConstant            = "User-Agent"
	requestIDHeaderConstant            = "X-Request-Id"
	jsonContentTypeConstant            = "application/json"
	defaultAuthorizationSchemeConstant = "Bearer"
	defaultUserAgentConstant           = "shipyard"
	defaultRequestTimeoutConstant      = 30 * time.Second
	invalidBaseURLTemplateConstant     = "restclient: invalid base url %q: %w"
	encodeBodyTemplateConstant         = "restclient: encode %s %s body: %w"
	buildRequestTemplateConstant       = "restclient: build %s %s request: %w"
	readBodyTemplateConstant           = "restclient: read %s %s body: %w"
	requestStartedMessageConstant      = "Sending API request"
	requestCompletedMessageConstant    = "API request completed"
	requestFailedMessageConstant       = "API request failed"
	logFieldMethodConstant             = "method"
	logFieldPathConstant               = "path"
	logFieldOperationConstant          = "operation"
	logFieldStatusConstant             = "status"
	logFieldDurationConstant           = "duration"
	logFieldRequestIDConstant          = "request_id"
)

// ErrorDecoder extracts a platform error code and message from a non-success response body.
// Returning an error marks the body as unparseable.
type ErrorDecoder func(body []byte) (code string, message string, err error)

// RequestObserver receives one notification per completed HTTP exchange.
type RequestObserver interface {
	ObserveRequest(operation string, method string, statusCode int, duration time.Duration)
}

// Request describes one JSON API call. Path is relative to the base URL.
type Request struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      any
}

// Response is a successful HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Empty reports whether the response carried no body.
func (response Response) Empty() bool {
	return len(bytes.TrimSpace(response.Body)) == 0
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the credential sent in the Authorization header.
func WithToken(token string) Option {
	return func(client *Client) {
		client.token = strings.TrimSpace(token)
	}
}

// WithAuthorizationScheme overrides the Authorization scheme (Bearer by default).
func WithAuthorizationScheme(scheme string) Option {
	return func(client *Client) {
		if trimmedScheme := strings.TrimSpace(scheme); len(trimmedScheme) > 0 {
			client.authorizationScheme = trimmedScheme
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(client *Client) {
		if trimmedUserAgent := strings.TrimSpace(userAgent); len(trimmedUserAgent) > 0 {
			client.userAgent = trimmedUserAgent
		}
	}
}

// WithAccept sets the Accept header.
func WithAccept(accept string) Option {
	return func(client *Client) {
		client.accept = strings.TrimSpace(accept)
	}
}

// WithHeader adds a static header to every request.
func WithHeader(name string, value string) Option {
	return func(client *Client) {
		client.staticHeaders.Set(name, value)
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// WithRequestObserver attaches a per-request observer.
func WithRequestObserver(observer RequestObserver) Option {
	return func(client *Client) {
		client.observer = observer
	}
}

// WithRequestIdentifier supplies the X-Request-Id value; by default every request receives a new UUID.
func WithRequestIdentifier(provider func() string) Option {
	return func(client *Client) {
		if provider != nil {
			client.requestIdentifier = provider
		}
	}
}

// WithErrorDecoder installs the platform-specific error body decoder.
func WithErrorDecoder(decoder ErrorDecoder) Option {
	return func(client *Client) {
		if decoder != nil {
			client.errorDecoder = decoder
		}
	}
}

// Client issues JSON requests against one API base URL.
type Client struct {
	baseURL             string
	token               string
	authorizationScheme string
	userAgent           string
	accept              string
	staticHeaders       http.Header
	httpClient          *http.Client
	logger              *zap.Logger
	observer            RequestObserver
	requestIdentifier   func() string
	errorDecoder        ErrorDecoder
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, ErrBaseURLNotConfigured
	}
	parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, trimmedBaseURL, parseError)
	}
	if len(parsedBaseURL.Scheme) == 0 || len(parsedBaseURL.Host) == 0 {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, trimmedBaseURL, ErrBaseURLNotConfigured)
	}

	client := &Client{
		baseURL:             trimmedBaseURL,
		authorizationScheme: defaultAuthorizationSchemeConstant,
		userAgent:           defaultUserAgentConstant,
		accept:              jsonContentTypeConstant,
		staticHeaders:       http.Header{},
		httpClient:          &http.Client{Timeout: defaultRequestTimeoutConstant},
		logger:              zap.NewNop(),
		requestIdentifier:   uuid.NewString,
		errorDecoder:        DecodeMessageError,
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Do performs the request. Non-2xx statuses yield APIError or ParseError; transport failures yield RequestError.
func (client *Client) Do(executionContext context.Context, request Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if len(method) == 0 {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if request.Body != nil {
		encodedBody, encodeError := json.Marshal(request.Body)
		if encodeError != nil {
			return Response{}, fmt.Errorf(encodeBodyTemplateConstant, method, request.Path, encodeError)
		}
		bodyReader = bytes.NewReader(encodedBody)
	}

	httpRequest, buildError := http.NewRequestWithContext(executionContext, method, client.endpoint(request), bodyReader)
	if buildError != nil {
		return Response{}, fmt.Errorf(buildRequestTemplateConstant, method, request.Path, buildError)
	}
	requestIdentifier := client.requestIdentifier()
	client.applyHeaders(httpRequest, request.Body != nil, requestIdentifier)

	requestFields := []zap.Field{
		zap.String(logFieldOperationConstant, request.Operation),
		zap.String(logFieldMethodConstant, method),
		zap.String(logFieldPathConstant, request.Path),
		zap.String(logFieldRequestIDConstant, requestIdentifier),
	}
	client.logger.Debug(requestStartedMessageConstant, requestFields...)

	startTime := time.Now()
	httpResponse, transportError := client.httpClient.Do(httpRequest)
	if transportError != nil {
		client.observe(request.Operation, method, 0, time.Since(startTime))
		client.logger.Warn(requestFailedMessageConstant, append(requestFields, zap.Error(transportError))...)
		return Response{}, RequestError{Method: method, Path: request.Path, Cause: transportError}
	}
	defer httpResponse.Body.Close()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	elapsed := time.Since(startTime)
	client.observe(request.Operation, method, httpResponse.StatusCode, elapsed)
	if readError != nil {
		return Response{}, RequestError{Method: method, Path: request.Path, Cause: fmt.Errorf(readBodyTemplateConstant, method, request.Path, readError)}
	}

	client.logger.Debug(requestCompletedMessageConstant, append(requestFields,
		zap.Int(logFieldStatusConstant, httpResponse.StatusCode),
		zap.Duration(logFieldDurationConstant, elapsed),
	)...)

	response := Response{StatusCode: httpResponse.StatusCode, Body: responseBody}
	if httpResponse.StatusCode >= http.StatusOK && httpResponse.StatusCode < http.StatusMultipleChoices {
		return response, nil
	}
	return response, client.statusError(method, request.Path, response)
}

// DoJSON performs the request and decodes a non-empty success body into target.
// An empty success body leaves target untouched.
func (client *Client) DoJSON(executionContext context.Context, request Request, target any) (Response, error) {
	response, requestError := client.Do(executionContext, request)
	if requestError != nil {
		return response, requestError
	}
	if target == nil || response.Empty() {
		return response, nil
	}
	if decodeError := json.Unmarshal(response.Body, target); decodeError != nil {
		return response, ParseError{
			Method:     strings.ToUpper(request.Method),
			Path:       request.Path,
			StatusCode: response.StatusCode,
			Body:       string(response.Body),
			Cause:      decodeError,
		}
	}
	return response, nil
}

func (client *Client) endpoint(request Request) string {
	endpoint := client.baseURL + "/" + strings.TrimLeft(request.Path, "/")
	if len(request.Query) > 0 {
		endpoint += "?" + request.Query.Encode()
	}
	return endpoint
}

func (client *Client) applyHeaders(httpRequest *http.Request, hasBody bool, requestIdentifier string) {
	for headerName, headerValues := range client.staticHeaders {
		for _, headerValue := range headerValues {
			httpRequest.Header.Add(headerName, headerValue)
		}
	}
	if hasBody {
		httpRequest.Header.Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	}
	if len(client.accept) > 0 {
		httpRequest.Header.Set(acceptHeaderConstant, client.accept)
	}
	if len(client.token) > 0 {
		httpRequest.Header.Set(authorizationHeaderConstant, client.authorizationScheme+" "+client.token)
	}
	httpRequest.Header.Set(userAgentHeaderConstant, client.userAgent)
	if len(requestIdentifier) > 0 {
		httpRequest.Header.Set(requestIDHeaderConstant, requestIdentifier)
	}
}

func (client *Client) statusError(method string, path string, response Response) error {
	if response.Empty() {
		return APIError{Method: method, Path: path, StatusCode: response.StatusCode, Message: synthesizedMessage(response.StatusCode)}
	}
	code, message, decodeError := client.errorDecoder(response.Body)
	if decodeError != nil {
		return ParseError{Method: method, Path: path, StatusCode: response.StatusCode, Body: string(response.Body), Cause: decodeError}
	}
	if len(strings.TrimSpace(message)) == 0 {
		message = http.StatusText(response.StatusCode)
	}
	return APIError{Method: method, Path: path, StatusCode: response.StatusCode, Code: code, Message: message}
}

func (client *Client) observe(operation string, method string, statusCode int, duration time.Duration) {
	if client.observer == nil {
		return
	}
	client.observer.ObserveRequest(operation, method, statusCode, duration)
}
