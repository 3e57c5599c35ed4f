package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Clean    CleanConfig    `mapstructure:"clean"`
	Poll     PollConfig     `mapstructure:"poll"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// QueueConfig controls the bounded task queue and its worker pool.
type QueueConfig struct {
	// Capacity is the maximum number of live (queued plus running) tasks.
	Capacity int `mapstructure:"capacity" validate:"required,gt=0"`

	// WorkerCount is the number of concurrent workers pulling tasks.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
}

// TaskConfig controls quiz generation task behavior.
type TaskConfig struct {
	// BatchSize is the number of items sent per generator call.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// QuotaAttempts is the number of credentials tried for a
	// rate-limited batch before the task fails.
	QuotaAttempts int `mapstructure:"quota_attempts" validate:"required,gt=0"`

	// TransientAttempts is the number of calls made for a batch that
	// hits transient errors before the task fails.
	TransientAttempts int `mapstructure:"transient_attempts" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// GeminiAPIKeys holds one or more API keys rotated across calls.
	// Provided as a comma-separated list in the environment.
	GeminiAPIKeys []string `mapstructure:"gemini_api_keys" validate:"required,min=1,dive,required"`

	// ModelName selects the Gemini model used for generation.
	ModelName string `mapstructure:"model_name" validate:"required"`

	// CooldownBaseSeconds is the initial cooldown applied to a key
	// after a quota failure.
	CooldownBaseSeconds int `mapstructure:"cooldown_base_seconds" validate:"required,gt=0"`

	// CooldownCapSeconds bounds the exponential cooldown growth.
	CooldownCapSeconds int `mapstructure:"cooldown_cap_seconds" validate:"required,gt=0"`

	// RequestsPerMinute paces outbound generator calls per key.
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"required,gt=0"`
}

// CleanConfig controls content cleanup applied to generated and
// collected quiz records.
type CleanConfig struct {
	// Marker is the bracketed tag stripped from text, e.g. "[TSS]".
	Marker string `mapstructure:"marker"`

	// LinkTag is the short-link prefix stripped from text, e.g. "t.me/".
	LinkTag string `mapstructure:"link_tag"`
}

// PollConfig controls poll collection and delivery behavior.
type PollConfig struct {
	// SendDelayMS is the delay between consecutive outbound items in
	// milliseconds, keeping delivery under chat platform flood limits.
	SendDelayMS int `mapstructure:"send_delay_ms" validate:"gte=0"`
}
