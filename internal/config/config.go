package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
	Stream   StreamConfig   `mapstructure:"stream"   validate:"required"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server and logging settings.
type ServerConfig struct {
	Port              int           `mapstructure:"port"                validate:"required,gt=0,lt=65536"`
	LogLevel          string        `mapstructure:"log_level"           validate:"required,oneof=debug info warn error"`
	LogFormat         string        `mapstructure:"log_format"          validate:"required,oneof=json text"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"    validate:"gt=0"`
}

// DatabaseConfig contains Postgres settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// RedisConfig is only required when jobs run on the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"        validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

// AuthConfig contains bearer token settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains generation provider settings.
type LLMConfig struct {
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"   validate:"required"`
	ModelName      string        `mapstructure:"model_name"       validate:"required"`
	MaxAttempts    int           `mapstructure:"max_attempts"     validate:"gte=1,lte=10"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"gte=0"`
	Temperature    float32       `mapstructure:"temperature"      validate:"gte=0,lte=2"`
	ContextChunks  int           `mapstructure:"context_chunks"   validate:"gte=1,lte=50"`
}

// JobsConfig controls the queues and worker pools.
type JobsConfig struct {
	Backend               string        `mapstructure:"backend"                 validate:"required,oneof=memory redis"`
	GenerationWorkers     int           `mapstructure:"generation_workers"      validate:"gte=1"`
	MinionWorkers         int           `mapstructure:"minion_workers"          validate:"gte=1"`
	PollInterval          time.Duration `mapstructure:"poll_interval"           validate:"gt=0"`
	GenerationMaxAttempts int           `mapstructure:"generation_max_attempts" validate:"gte=1"`
	GenerationBackoff     time.Duration `mapstructure:"generation_backoff"      validate:"gte=0"`
	GenerationTimeout     time.Duration `mapstructure:"generation_timeout"      validate:"gt=0"`
	MinionTimeout         time.Duration `mapstructure:"minion_timeout"          validate:"gt=0"`
	StaleAfter            time.Duration `mapstructure:"stale_after"             validate:"gt=0"`
	StaleCheckInterval    time.Duration `mapstructure:"stale_check_interval"    validate:"gt=0"`
	DrainTimeout          time.Duration `mapstructure:"drain_timeout"           validate:"gte=0"`
}

// StreamConfig controls the SSE bridges.
type StreamConfig struct {
	StatusTimeout     time.Duration `mapstructure:"status_timeout"     validate:"gt=0"`
	ResultTimeout     time.Duration `mapstructure:"result_timeout"     validate:"gt=0"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"gt=0"`
	ResultTTL         time.Duration `mapstructure:"result_ttl"         validate:"gt=0"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"     validate:"omitempty,oneof=stdout otlp"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}
