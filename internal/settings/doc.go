// Package settings holds the immutable runtime configuration shared by the
// bootstrap and deployment workflows.
//
// Source mirrors the persisted configuration document and is decoded by the
// CLI configuration loader. New resolves defaults and credentials exactly once
// and returns a Configuration whose accessors report missing identities or
// credentials as ConfigurationError values.
package settings
