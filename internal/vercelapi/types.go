package vercelapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Git provider and deployment constants used in request documents.
const (
	GitProviderGitHub    = "github"
	TargetProduction     = "production"
	ProductionBranchMain = "main"
)

// Deployment readiness states.
const (
	StateQueued       = "QUEUED"
	StateInitializing = "INITIALIZING"
	StateBuilding     = "BUILDING"
	StateReady        = "READY"
	StateError        = "ERROR"
	StateCanceled     = "CANCELED"
	StateFailed       = "FAILED"
)

// RepositoryID is the platform identifier of a linked git repository. The API
// reports it as a number, so it is accepted from either JSON numbers or strings.
type RepositoryID string

// UnmarshalJSON accepts numeric and string identifiers.
func (repositoryID *RepositoryID) UnmarshalJSON(data []byte) error {
	trimmedData := bytes.TrimSpace(data)
	if bytes.Equal(trimmedData, []byte("null")) {
		*repositoryID = ""
		return nil
	}
	if len(trimmedData) > 0 && trimmedData[0] == '"' {
		var textValue string
		if unmarshalError := json.Unmarshal(trimmedData, &textValue); unmarshalError != nil {
			return unmarshalError
		}
		*repositoryID = RepositoryID(strings.TrimSpace(textValue))
		return nil
	}
	var numericValue json.Number
	if unmarshalError := json.Unmarshal(trimmedData, &numericValue); unmarshalError != nil {
		return unmarshalError
	}
	*repositoryID = RepositoryID(numericValue.String())
	return nil
}

// MarshalJSON emits numeric identifiers as JSON numbers.
func (repositoryID RepositoryID) MarshalJSON() ([]byte, error) {
	if _, parseError := strconv.ParseInt(string(repositoryID), 10, 64); parseError == nil {
		return []byte(repositoryID), nil
	}
	return json.Marshal(string(repositoryID))
}

// String returns the identifier text.
func (repositoryID RepositoryID) String() string {
	return string(repositoryID)
}

// Empty reports whether no identifier is present.
func (repositoryID RepositoryID) Empty() bool {
	return len(strings.TrimSpace(string(repositoryID))) == 0
}

// ProjectLink is the git repository association of a project.
type ProjectLink struct {
	Type             string       `json:"type,omitempty"`
	Org              string       `json:"org,omitempty"`
	Repo             string       `json:"repo,omitempty"`
	RepoID           RepositoryID `json:"repoId,omitempty"`
	ProductionBranch string       `json:"productionBranch,omitempty"`
}

// LinkedToGitHub reports whether the link is a GitHub link carrying a repository identifier.
func (link *ProjectLink) LinkedToGitHub() bool {
	return link != nil && link.Type == GitProviderGitHub && !link.RepoID.Empty()
}

// Project is the subset of the project document the workflows consume.
type Project struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Framework string       `json:"framework,omitempty"`
	Link      *ProjectLink `json:"link,omitempty"`
}

// GitRepository declares the git source of a new project.
type GitRepository struct {
	Type string `json:"type"`
	Repo string `json:"repo"`
}

// CreateProjectRequest is the project creation document.
type CreateProjectRequest struct {
	Name          string         `json:"name"`
	Framework     string         `json:"framework,omitempty"`
	GitRepository *GitRepository `json:"gitRepository,omitempty"`
}

// LinkProjectRequest is the project link document.
type LinkProjectRequest struct {
	Type             string `json:"type"`
	Repo             string `json:"repo"`
	ProductionBranch string `json:"productionBranch"`
}

// GitSource identifies the commit source of a deployment.
type GitSource struct {
	Type   string       `json:"type"`
	RepoID RepositoryID `json:"repoId"`
	Ref    string       `json:"ref"`
}

// CreateDeploymentRequest is the deployment creation document.
type CreateDeploymentRequest struct {
	Name      string    `json:"name"`
	Target    string    `json:"target"`
	GitSource GitSource `json:"gitSource"`
}

// DeploymentError carries a failure reason reported by the platform.
type DeploymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Deployment is the subset of the deployment document the workflows consume.
type Deployment struct {
	ID           string           `json:"id"`
	Name         string           `json:"name,omitempty"`
	URL          string           `json:"url"`
	ReadyState   string           `json:"readyState,omitempty"`
	Status       string           `json:"status,omitempty"`
	Error        *DeploymentError `json:"error,omitempty"`
	ErrorCode    string           `json:"errorCode,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// State returns readyState, falling back to status.
func (deployment Deployment) State() string {
	if state := strings.TrimSpace(deployment.ReadyState); len(state) > 0 {
		return strings.ToUpper(state)
	}
	return strings.ToUpper(strings.TrimSpace(deployment.Status))
}

// FailureReason returns the platform failure message, if any.
func (deployment Deployment) FailureReason() string {
	if deployment.Error != nil && len(strings.TrimSpace(deployment.Error.Message)) > 0 {
		return strings.TrimSpace(deployment.Error.Message)
	}
	if len(strings.TrimSpace(deployment.ErrorMessage)) > 0 {
		return strings.TrimSpace(deployment.ErrorMessage)
	}
	if deployment.Error != nil && len(strings.TrimSpace(deployment.Error.Code)) > 0 {
		return strings.TrimSpace(deployment.Error.Code)
	}
	return strings.TrimSpace(deployment.ErrorCode)
}
