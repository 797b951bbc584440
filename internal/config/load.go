package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load,
// e.g. RESEARCHER_SERVER_PORT or RESEARCHER_DATABASE_URL.
const envPrefix = "RESEARCHER"

// Load reads configuration from environment variables and optionally a
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read the optional config file; a missing file is fine, any other
	// read failure is not.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: RESEARCHER_SECTION_KEY maps to section.key.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all optional settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("pipeline.max_concurrent_requests", 5)
	v.SetDefault("pipeline.cache_ttl_seconds", 3600)
	v.SetDefault("pipeline.queue_size", 100)
	v.SetDefault("pipeline.pop_timeout_seconds", 1)
	v.SetDefault("pipeline.task_timeout_seconds", 300)
	v.SetDefault("pipeline.fetch_top_n", 5)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("providers.http_timeout_seconds", 10)
}

// bindEnvKeys explicitly binds every config key so AutomaticEnv picks up
// environment variables for keys that have no default and appear in no
// config file (viper only reads env vars for keys it already knows about).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.port",
		"server.log_level",
		"database.url",
		"pipeline.max_concurrent_requests",
		"pipeline.cache_ttl_seconds",
		"pipeline.queue_size",
		"pipeline.pop_timeout_seconds",
		"pipeline.task_timeout_seconds",
		"pipeline.fetch_top_n",
		"llm.gemini_api_key",
		"llm.model_name",
		"llm.max_retries",
		"llm.retry_delay_seconds",
		"providers.google_api_key",
		"providers.serper_api_key",
		"providers.duckduckgo_api_key",
		"providers.http_timeout_seconds",
	}
	for _, key := range keys {
		// BindEnv only fails on an empty key, which cannot happen here.
		_ = v.BindEnv(key)
	}
}
