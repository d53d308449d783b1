// Package utils hosts the CLI plumbing shared by the shipyard commands: the
// Viper-backed ConfigurationLoader, the zap LoggerFactory and the accessor for
// values stored in command contexts.
package utils
