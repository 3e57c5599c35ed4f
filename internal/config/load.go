package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envPrefix is prepended to all environment variable names, so the
// server port is read from QUIZFORGE_SERVER_PORT and so on.
const envPrefix = "QUIZFORGE"

// Load configuration from environment variables and optionally a config
// file. Environment variables take precedence over values from config
// files. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("quizforge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so
	// every key that may come solely from the environment is bound
	// explicitly.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %q: %w", key, err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all settings that have one.
// Required settings without defaults (database URL, API keys) must come
// from the environment or a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("queue.capacity", 20)
	v.SetDefault("queue.worker_count", 10)
	v.SetDefault("task.batch_size", 30)
	v.SetDefault("task.quota_attempts", 3)
	v.SetDefault("task.transient_attempts", 2)
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.cooldown_base_seconds", 30)
	v.SetDefault("llm.cooldown_cap_seconds", 600)
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("clean.marker", "[TSS]")
	v.SetDefault("clean.link_tag", "t.me/")
	v.SetDefault("poll.send_delay_ms", 500)
}

// configKeys lists every configuration key so each can be bound to its
// environment variable.
func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"database.url",
		"queue.capacity",
		"queue.worker_count",
		"task.batch_size",
		"task.quota_attempts",
		"task.transient_attempts",
		"llm.gemini_api_keys",
		"llm.model_name",
		"llm.cooldown_base_seconds",
		"llm.cooldown_cap_seconds",
		"llm.requests_per_minute",
		"clean.marker",
		"clean.link_tag",
		"poll.send_delay_ms",
	}
}
