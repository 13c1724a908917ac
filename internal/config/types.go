package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Events   EventsConfig   `yaml:"events" mapstructure:"events"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RateLimit    struct {
		Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
		RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
		Burst          int     `yaml:"burst" mapstructure:"burst"`
	} `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CustomPattern is an operator-supplied redaction rule. Matches count
// toward the "other" bucket in redaction reports.
type CustomPattern struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
}

// PipelineConfig contains redaction and extraction configuration
type PipelineConfig struct {
	DefaultStyle string `yaml:"default_style" mapstructure:"default_style"`
	Thresholds   struct {
		DigitLength   int `yaml:"digit_length" mapstructure:"digit_length"`
		MinNoteLength int `yaml:"min_note_length" mapstructure:"min_note_length"`
	} `yaml:"thresholds" mapstructure:"thresholds"`
	CustomPatterns []CustomPattern `yaml:"custom_patterns" mapstructure:"custom_patterns"`
}

// CacheConfig contains Redis result-cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// StorageConfig contains coverage-report database configuration
type StorageConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// EventsConfig contains WebSocket event-feed configuration
type EventsConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Path            string        `yaml:"path" mapstructure:"path"`
	MaxConnections  int           `yaml:"max_connections" mapstructure:"max_connections"`
	ReadBufferSize  int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxMessageSize  int64         `yaml:"max_message_size" mapstructure:"max_message_size"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Broadcast       struct {
		Requests    bool `yaml:"requests" mapstructure:"requests"`
		Redactions  bool `yaml:"redactions" mapstructure:"redactions"`
		Connections bool `yaml:"connections" mapstructure:"connections"`
	} `yaml:"broadcast" mapstructure:"broadcast"`
}

// BatchConfig contains dataset processor configuration
type BatchConfig struct {
	BatchSize      int  `yaml:"batch_size" mapstructure:"batch_size"`
	ProgressReport int  `yaml:"progress_report" mapstructure:"progress_report"`
	ValidateData   bool `yaml:"validate_data" mapstructure:"validate_data"`
	MaxNoteLength  int  `yaml:"max_note_length" mapstructure:"max_note_length"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Pipeline: PipelineConfig{
			DefaultStyle: "protected",
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			MaxConnections: 10,
			MinIdleConns:   2,
			DefaultTTL:     time.Hour,
			KeyPrefix:      "notecloak",
		},
		Storage: StorageConfig{
			Enabled:         false,
			DatabaseURL:     "postgres://localhost:5432/notecloak?sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			Enabled:         true,
			Path:            "/ws",
			MaxConnections:  100,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    54 * time.Second,
			PongTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxMessageSize:  512,
			AllowedOrigins:  []string{"*"}, // Allow all origins for development
		},
		Batch: BatchConfig{
			BatchSize:      500,
			ProgressReport: 1000,
			ValidateData:   true,
			MaxNoteLength:  100000,
		},
	}

	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerSec = 10
	cfg.Server.RateLimit.Burst = 20

	cfg.Pipeline.Thresholds.DigitLength = 8
	cfg.Pipeline.Thresholds.MinNoteLength = 20

	cfg.Logging.File.Enabled = false
	cfg.Logging.File.Path = "logs/notecloak.log"

	cfg.Events.Broadcast.Requests = true
	cfg.Events.Broadcast.Redactions = true
	cfg.Events.Broadcast.Connections = true

	return cfg
}
