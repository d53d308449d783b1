// Package githubapi creates repositories through the GitHub REST API.
package githubapi

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
	organizationRepositoriesPathTemplateConstant = "/orgs/%s/repos"
	userRepositoriesPathConstant                 = "/user/repos"
	repositoryPathTemplateConstant               = "/repos/%s/%s"
	createRepositoryOperationConstant            = "github.create_repository"
	getRepositoryOperationConstant               = "github.get_repository"
	nameTakenMarkerConstant                      = "already exists"
	acceptMediaTypeConstant                      = "application/vnd.github+json"
	apiVersionHeaderConstant                     = "X-GitHub-Api-Version"
	apiVersionConstant                           = "2022-11-28"
	createRepositoryErrorTemplateConstant        = "create repository %s: %w"
	getRepositoryErrorTemplateConstant           = "get repository %s/%s: %w"
)

var (
	// ErrTransportNotConfigured indicates the client was built without a REST transport.
	ErrTransportNotConfigured = errors.New("githubapi: transport not configured")
	// ErrRepositoryNameRequired indicates an empty repository name.
	ErrRepositoryNameRequired = errors.New("githubapi: repository name required")
	// ErrOwnerRequired indicates a request that needs an owner but has none.
	ErrOwnerRequired = errors.New("githubapi: organization owner required")
)

// Transport performs JSON API requests.
type Transport interface {
	DoJSON(executionContext context.Context, request restclient.Request, target any) (restclient.Response, error)
}

// TransportOptions returns the restclient options GitHub requires in addition to authentication.
func TransportOptions() []restclient.Option {
	return []restclient.Option{
		restclient.WithAccept(acceptMediaTypeConstant),
		restclient.WithHeader(apiVersionHeaderConstant, apiVersionConstant),
		restclient.WithErrorDecoder(restclient.DecodeMessageError),
	}
}

// Owner is the account that owns a repository.
type Owner struct {
	Login string `json:"login" yaml:"login"`
	Type  string `json:"type" yaml:"type"`
}

// Repository is the subset of the repository document the workflows consume.
type Repository struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	FullName string `json:"full_name" yaml:"full_name"`
	HTMLURL  string `json:"html_url" yaml:"html_url"`
	CloneURL string `json:"clone_url" yaml:"clone_url"`
	Private  bool   `json:"private" yaml:"private"`
	Owner    Owner  `json:"owner" yaml:"owner"`
}

// CreateRepositoryRequest describes a repository to create under a user or an organization.
type CreateRepositoryRequest struct {
	Owner        string
	Organization bool
	Name         string
	Description  string
	Private      bool
	AutoInit     bool
}

type createRepositoryPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

// IsNameTaken reports whether a create was rejected because the owner already has a repository with that name.
func IsNameTaken(err error) bool {
	if restclient.StatusCode(err) != http.StatusUnprocessableEntity {
		return false
	}
	var apiError restclient.APIError
	if errors.As(err, &apiError) {
		return strings.Contains(strings.ToLower(apiError.Message), nameTakenMarkerConstant)
	}
	var parseError restclient.ParseError
	if errors.As(err, &parseError) {
		return strings.Contains(strings.ToLower(parseError.Body), nameTakenMarkerConstant)
	}
	return false
}

// Client wraps the GitHub repository endpoints.
type Client struct {
	transport Transport
}

// NewClient constructs a Client.
func NewClient(transport Transport) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportNotConfigured
	}
	return &Client{transport: transport}, nil
}

// CreateRepository creates the repository. An empty success body yields a zero Repository and no error.
func (client *Client) CreateRepository(executionContext context.Context, request CreateRepositoryRequest) (Repository, error) {
	repositoryName := strings.TrimSpace(request.Name)
	if len(repositoryName) == 0 {
		return Repository{}, ErrRepositoryNameRequired
	}

	path := userRepositoriesPathConstant
	if request.Organization {
		ownerName := strings.TrimSpace(request.Owner)
		if len(ownerName) == 0 {
			return Repository{}, ErrOwnerRequired
		}
		path = fmt.Sprintf(organizationRepositoriesPathTemplateConstant, ownerName)
	}

	var repository Repository
	_, requestError := client.transport.DoJSON(executionContext, restclient.Request{
		Operation: createRepositoryOperationConstant,
		Method:    http.MethodPost,
		Path:      path,
		Body: createRepositoryPayload{
			Name:        repositoryName,
			Description: strings.TrimSpace(request.Description),
			Private:     request.Private,
			AutoInit:    request.AutoInit,
		},
	}, &repository)
	if requestError != nil {
		return Repository{}, fmt.Errorf(createRepositoryErrorTemplateConstant, repositoryName, requestError)
	}
	return repository, nil
}

// GetRepository fetches owner/name.
func (client *Client) GetRepository(executionContext context.Context, owner string, name string) (Repository, error) {
	ownerName := strings.TrimSpace(owner)
	if len(ownerName) == 0 {
		return Repository{}, ErrOwnerRequired
	}
	repositoryName := strings.TrimSpace(name)
	if len(repositoryName) == 0 {
		return Repository{}, ErrRepositoryNameRequired
	}

	var repository Repository
	_, requestError := client.transport.DoJSON(executionContext, restclient.Request{
		Operation: getRepositoryOperationConstant,
		Method:    http.MethodGet,
		Path:      fmt.Sprintf(repositoryPathTemplateConstant, url.PathEscape(ownerName), url.PathEscape(repositoryName)),
	}, &repository)
	if requestError != nil {
		return Repository{}, fmt.Errorf(getRepositoryErrorTemplateConstant, ownerName, repositoryName, requestError)
	}
	return repository, nil
}
