package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// PipelineConfig contains the research pipeline tuning knobs: queue sizing,
// the process-wide provider concurrency bound, cache lifetime and the
// per-task execution deadline.
type PipelineConfig struct {
	// MaxConcurrentRequests bounds provider calls in flight across the
	// whole process, not per task.
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" validate:"required,gt=0"`

	// CacheTTLSeconds is how long fetched results stay valid in the search cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`

	// QueueSize is the buffer size of the in-memory task queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`

	// PopTimeoutSeconds is how long the consumer loop blocks waiting for the
	// next task before re-checking for shutdown.
	PopTimeoutSeconds int `mapstructure:"pop_timeout_seconds" validate:"required,gt=0"`

	// TaskTimeoutSeconds is the execution deadline applied to each task
	// handler invocation. A stuck provider or analyzer call fails the task
	// instead of wedging the consumer loop forever.
	TaskTimeoutSeconds int `mapstructure:"task_timeout_seconds" validate:"required,gt=0"`

	// FetchTopN is the fixed truncation applied to concatenated provider
	// results before caching, independent of the caller's max_results.
	FetchTopN int `mapstructure:"fetch_top_n" validate:"required,gt=0"`
}

// LLMConfig contains Gemini integration settings. The whole section is
// optional: without an API key the service falls back to the heuristic
// analyzer.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// ProvidersConfig contains API keys and transport settings for the search
// providers. Providers without a key are simply not registered.
type ProvidersConfig struct {
	GoogleAPIKey       string `mapstructure:"google_api_key"`
	SerperAPIKey       string `mapstructure:"serper_api_key"`
	DuckDuckGoAPIKey   string `mapstructure:"duckduckgo_api_key"`
	HTTPTimeoutSeconds int    `mapstructure:"http_timeout_seconds" validate:"required,gt=0"`
}
