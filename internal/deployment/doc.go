// Package deployment links a GitHub repository to a Vercel project, triggers a
// production deployment and polls it until it reaches a terminal state.
//
// Polling separates classification from control flow: ClassifyDeployment maps
// each status check to retry, success or failure, and a single bounded loop
// consumes those decisions. When the bound elapses CreateAndDeploy reports a
// derived project URL marked unverified instead of failing.
package deployment
