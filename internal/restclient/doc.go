// Package restclient is a small JSON-over-HTTP transport shared by the
// source-host and deployment-host API clients. It applies token
// authentication, request identifiers and error classification: non-success
// statuses become APIError, undecodable bodies become ParseError and
// transport failures become RequestError.
package restclient
