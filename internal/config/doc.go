// Package config defines the application configuration structure and
// loading logic. Configuration is read from environment variables with the
// RESEARCHER_ prefix (optionally supplemented by a config.yaml file) and
// validated before the application starts.
package config
