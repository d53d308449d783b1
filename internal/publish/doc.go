// Package publish chains the repository bootstrap and deployment workflows.
//
// Service.Publish creates the remote repository, pushes the working tree and
// hands the resulting repository URL to the deployment orchestrator. Neither
// workflow knows about the other; this package is the only caller of both.
package publish
