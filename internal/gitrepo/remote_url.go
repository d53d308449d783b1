package gitrepo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	httpsSchemeConstant                 = "https"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	fullNameTemplateConstant            = "%s/%s"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRepositoryURLMessageConstant = "expected a repository URL of the form <host>/<owner>/<repository>"
	requiredValueMessageConstant        = "value required"
	coordinatesPatternTemplateConstant  = `(?:^|[/@])(?:www\.)?%s[/:]([^/\s]+)/([^/\s?#]+?)(?:\.git)?(?:[/?#]|$)`
)

// RepositoryCoordinates identify a hosted repository by owner and name.
type RepositoryCoordinates struct {
	Owner      string
	Repository string
}

// FullName renders the coordinates as owner/repository.
func (coordinates RepositoryCoordinates) FullName() string {
	return fmt.Sprintf(fullNameTemplateConstant, coordinates.Owner, coordinates.Repository)
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRepositoryCoordinates extracts owner and repository from a URL hosted on host.
// HTTPS, ssh:// and scp-style remotes are accepted; a trailing .git and any deeper path are dropped.
func ParseRepositoryCoordinates(repositoryURL string, host string) (RepositoryCoordinates, error) {
	trimmedURL := strings.TrimSpace(repositoryURL)
	trimmedHost := strings.TrimSpace(host)
	if len(trimmedURL) == 0 || len(trimmedHost) == 0 {
		return RepositoryCoordinates{}, RemoteURLParseError{Input: repositoryURL, Message: requiredValueMessageConstant}
	}

	coordinatesPattern := regexp.MustCompile(fmt.Sprintf(coordinatesPatternTemplateConstant, regexp.QuoteMeta(trimmedHost)))
	matches := coordinatesPattern.FindStringSubmatch(trimmedURL)
	if matches == nil {
		return RepositoryCoordinates{}, RemoteURLParseError{Input: repositoryURL, Message: invalidRepositoryURLMessageConstant}
	}

	repositoryName := strings.TrimSuffix(matches[2], gitSuffixConstant)
	if len(repositoryName) == 0 {
		return RepositoryCoordinates{}, RemoteURLParseError{Input: repositoryURL, Message: invalidRepositoryURLMessageConstant}
	}

	return RepositoryCoordinates{Owner: matches[1], Repository: repositoryName}, nil
}

// BuildAuthenticatedRemoteURL renders https://<credential>@<host>/<owner>/<repository>.git
// with the credential percent-encoded as URL user information.
func BuildAuthenticatedRemoteURL(host string, coordinates RepositoryCoordinates, credential string) (string, error) {
	if len(strings.TrimSpace(credential)) == 0 {
		return "", RemoteURLParseError{Input: host, Message: requiredValueMessageConstant}
	}
	remoteURL, buildError := buildRepositoryURL(host, coordinates, gitSuffixConstant)
	if buildError != nil {
		return "", buildError
	}
	remoteURL.User = url.User(credential)
	return remoteURL.String(), nil
}

// BuildWebURL renders the browser URL of a hosted repository.
func BuildWebURL(host string, coordinates RepositoryCoordinates) (string, error) {
	webURL, buildError := buildRepositoryURL(host, coordinates, "")
	if buildError != nil {
		return "", buildError
	}
	return webURL.String(), nil
}

func buildRepositoryURL(host string, coordinates RepositoryCoordinates, suffix string) (*url.URL, error) {
	trimmedHost := strings.TrimSpace(host)
	if len(trimmedHost) == 0 {
		return nil, RemoteURLParseError{Input: host, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(coordinates.Owner)) == 0 {
		return nil, RemoteURLParseError{Input: coordinates.Owner, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(coordinates.Repository)) == 0 {
		return nil, RemoteURLParseError{Input: coordinates.Repository, Message: requiredValueMessageConstant}
	}

	return &url.URL{
		Scheme: httpsSchemeConstant,
		Host:   trimmedHost,
		Path:   pathSeparatorConstant + coordinates.Owner + pathSeparatorConstant + coordinates.Repository + suffix,
	}, nil
}
