// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for the local operations the bootstrap workflow
// performs (init, identity, staging, commits, remotes, branches and pushes),
// and remote URL helpers that build authenticated push URLs and extract
// owner/repository coordinates from hosted repository URLs.
package gitrepo
