package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// QUIZZER_DATABASE_URL for database.url.
const EnvPrefix = "QUIZZER"

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables, which take precedence.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys without defaults are invisible to AutomaticEnv during Unmarshal
	for _, key := range []string{"database.url", "auth.jwt_secret", "llm.gemini_api_key", "redis.addr", "redis.password", "tracing.endpoint"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct validation followed by cross-field checks.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.Jobs.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("configuration validation failed: redis.addr is required when jobs.backend is redis")
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("configuration validation failed: tracing.endpoint is required for the otlp exporter")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.retry_base_delay", 2*time.Second)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.context_chunks", 8)

	v.SetDefault("jobs.backend", "redis")
	v.SetDefault("jobs.generation_workers", 2)
	v.SetDefault("jobs.minion_workers", 5)
	v.SetDefault("jobs.poll_interval", 500*time.Millisecond)
	v.SetDefault("jobs.generation_max_attempts", 3)
	v.SetDefault("jobs.generation_backoff", 5*time.Second)
	v.SetDefault("jobs.generation_timeout", 10*time.Minute)
	v.SetDefault("jobs.minion_timeout", 60*time.Second)
	v.SetDefault("jobs.stale_after", 15*time.Minute)
	v.SetDefault("jobs.stale_check_interval", time.Minute)
	v.SetDefault("jobs.drain_timeout", 30*time.Second)

	v.SetDefault("stream.status_timeout", 12*time.Minute)
	v.SetDefault("stream.result_timeout", 70*time.Second)
	v.SetDefault("stream.heartbeat_interval", 15*time.Second)
	v.SetDefault("stream.result_ttl", 5*time.Minute)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.service_name", "ai-quizzer")
	v.SetDefault("tracing.sample_ratio", 1.0)
}
