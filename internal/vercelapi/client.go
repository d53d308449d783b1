// Package vercelapi wraps the Vercel project, link and deployment endpoints.
package vercelapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/temirov/shipyard/internal/restclient"
)

const (
	projectPathTemplateConstant           = "/v9/projects/%s"
	projectsPathConstant                  = "/v9/projects"
	projectLinkPathTemplateConstant       = "/v9/projects/%s/link"
	deploymentsPathConstant               = "/v13/deployments"
	deploymentPathTemplateConstant        = "/v13/deployments/%s"
	teamIDQueryParameterConstant          = "teamId"
	notFoundErrorCodeConstant             = "not_found"
	conflictErrorCodeConstant             = "conflict"
	getProjectOperationConstant           = "vercel.get_project"
	createProjectOperationConstant        = "vercel.create_project"
	linkProjectOperationConstant          = "vercel.link_project"
	createDeploymentOperationConstant     = "vercel.create_deployment"
	getDeploymentOperationConstant        = "vercel.get_deployment"
	getProjectErrorTemplateConstant       = "get project %s: %w"
	createProjectErrorTemplateConstant    = "create project %s: %w"
	linkProjectErrorTemplateConstant      = "link project %s: %w"
	createDeploymentErrorTemplateConstant = "create deployment for %s: %w"
	getDeploymentErrorTemplateConstant    = "get deployment %s: %w"
)

var (
	// ErrTransportNotConfigured indicates the client was built without a REST transport.
	ErrTransportNotConfigured = errors.New("vercelapi: transport not configured")
	// ErrIdentifierRequired indicates an empty project or deployment identifier.
	ErrIdentifierRequired = errors.New("vercelapi: identifier required")
)

// Transport performs JSON API requests.
type Transport interface {
	DoJSON(executionContext context.Context, request restclient.Request, target any) (restclient.Response, error)
}

// TransportOptions returns the restclient options Vercel requires in addition to authentication.
func TransportOptions() []restclient.Option {
	return []restclient.Option{
		restclient.WithErrorDecoder(restclient.DecodeNestedError),
	}
}

// IsNotFound reports whether err is a 404, whatever its body, or a not_found platform error.
func IsNotFound(err error) bool {
	if restclient.StatusCode(err) == http.StatusNotFound {
		return true
	}
	var apiError restclient.APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.Code == notFoundErrorCodeConstant
}

// IsConflict reports whether err rejects a create because the name is already taken.
func IsConflict(err error) bool {
	if restclient.StatusCode(err) == http.StatusConflict {
		return true
	}
	var apiError restclient.APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.Code == conflictErrorCodeConstant
}

// Client wraps the Vercel REST endpoints.
type Client struct {
	transport Transport
	teamID    string
}

// NewClient constructs a Client. A non-empty teamID scopes every request to that team.
func NewClient(transport Transport, teamID string) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportNotConfigured
	}
	return &Client{transport: transport, teamID: strings.TrimSpace(teamID)}, nil
}

// GetProject fetches a project by name or identifier.
func (client *Client) GetProject(executionContext context.Context, nameOrID string) (Project, error) {
	trimmedIdentifier := strings.TrimSpace(nameOrID)
	if len(trimmedIdentifier) == 0 {
		return Project{}, ErrIdentifierRequired
	}
	var project Project
	if requestError := client.call(executionContext, getProjectOperationConstant, http.MethodGet, fmt.Sprintf(projectPathTemplateConstant, url.PathEscape(trimmedIdentifier)), nil, &project); requestError != nil {
		return Project{}, fmt.Errorf(getProjectErrorTemplateConstant, trimmedIdentifier, requestError)
	}
	return project, nil
}

// CreateProject creates a project.
func (client *Client) CreateProject(executionContext context.Context, request CreateProjectRequest) (Project, error) {
	var project Project
	if requestError := client.call(executionContext, createProjectOperationConstant, http.MethodPost, projectsPathConstant, request, &project); requestError != nil {
		return Project{}, fmt.Errorf(createProjectErrorTemplateConstant, request.Name, requestError)
	}
	return project, nil
}

// LinkProject associates a project with a git repository.
func (client *Client) LinkProject(executionContext context.Context, projectID string, request LinkProjectRequest) (ProjectLink, error) {
	trimmedProjectID := strings.TrimSpace(projectID)
	if len(trimmedProjectID) == 0 {
		return ProjectLink{}, ErrIdentifierRequired
	}
	var link ProjectLink
	if requestError := client.call(executionContext, linkProjectOperationConstant, http.MethodPost, fmt.Sprintf(projectLinkPathTemplateConstant, url.PathEscape(trimmedProjectID)), request, &link); requestError != nil {
		return ProjectLink{}, fmt.Errorf(linkProjectErrorTemplateConstant, trimmedProjectID, requestError)
	}
	return link, nil
}

// CreateDeployment starts a deployment; it returns without waiting for readiness.
func (client *Client) CreateDeployment(executionContext context.Context, request CreateDeploymentRequest) (Deployment, error) {
	var deployment Deployment
	if requestError := client.call(executionContext, createDeploymentOperationConstant, http.MethodPost, deploymentsPathConstant, request, &deployment); requestError != nil {
		return Deployment{}, fmt.Errorf(createDeploymentErrorTemplateConstant, request.Name, requestError)
	}
	return deployment, nil
}

// GetDeployment fetches the current deployment document.
func (client *Client) GetDeployment(executionContext context.Context, deploymentID string) (Deployment, error) {
	trimmedDeploymentID := strings.TrimSpace(deploymentID)
	if len(trimmedDeploymentID) == 0 {
		return Deployment{}, ErrIdentifierRequired
	}
	var deployment Deployment
	if requestError := client.call(executionContext, getDeploymentOperationConstant, http.MethodGet, fmt.Sprintf(deploymentPathTemplateConstant, url.PathEscape(trimmedDeploymentID)), nil, &deployment); requestError != nil {
		return Deployment{}, fmt.Errorf(getDeploymentErrorTemplateConstant, trimmedDeploymentID, requestError)
	}
	return deployment, nil
}

func (client *Client) call(executionContext context.Context, operation string, method string, path string, body any, target any) error {
	request := restclient.Request{Operation: operation, Method: method, Path: path}
	if body != nil {
		request.Body = body
	}
	if len(client.teamID) > 0 {
		request.Query = url.Values{teamIDQueryParameterConstant: []string{client.teamID}}
	}
	_, requestError := client.transport.DoJSON(executionContext, request, target)
	return requestError
}
