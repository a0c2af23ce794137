package config

import (
	"errors"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	StaticDir      string   `mapstructure:"static_dir" yaml:"static_dir"`

	ClientBuffer    int   `mapstructure:"client_buffer" yaml:"client_buffer"`
	CommandBuffer   int   `mapstructure:"command_buffer" yaml:"command_buffer"`
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxStrokePoints int   `mapstructure:"max_stroke_points" yaml:"max_stroke_points"`

	CursorRateLimit float64 `mapstructure:"cursor_rate_limit" yaml:"cursor_rate_limit"`
	CursorBurst     int     `mapstructure:"cursor_burst" yaml:"cursor_burst"`

	StatsInterval time.Duration `mapstructure:"stats_interval" yaml:"stats_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		AllowedOrigins:    []string{"*"},
		ClientBuffer:      256,
		CommandBuffer:     64,
		MaxMessageBytes:   1 << 20,
		MaxStrokePoints:   10000,
		CursorRateLimit:   60,
		CursorBurst:       120,
		StatsInterval:     30 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.CommandBuffer != 0 {
		c.CommandBuffer = other.CommandBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.MaxStrokePoints != 0 {
		c.MaxStrokePoints = other.MaxStrokePoints
	}
	if other.CursorRateLimit != 0 {
		c.CursorRateLimit = other.CursorRateLimit
	}
	if other.CursorBurst != 0 {
		c.CursorBurst = other.CursorBurst
	}
	if other.StatsInterval != 0 {
		c.StatsInterval = other.StatsInterval
	}
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("read_header_timeout must not be negative"))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, errors.New("log_format must be console or json"))
	}
	if c.ClientBuffer <= 0 {
		errs = append(errs, errors.New("client_buffer must be positive"))
	}
	if c.CommandBuffer <= 0 {
		errs = append(errs, errors.New("command_buffer must be positive"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max_message_bytes must be positive"))
	}
	if c.MaxStrokePoints < 0 {
		errs = append(errs, errors.New("max_stroke_points must not be negative"))
	}
	if c.CursorRateLimit < 0 || c.CursorBurst < 0 {
		errs = append(errs, errors.New("cursor rate limit must not be negative"))
	}
	return errors.Join(errs...)
}
