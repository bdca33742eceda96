// Package config provides configuration loading and validation for anisette.
// It supports TOML configuration files with environment variable expansion,
// default values, and validation.
//
// Configuration structure:
//   - [server]: listen address, timeouts and request rate limit
//   - [pool]: blocking-task pool size, queue bound and overload policy
//   - [provider]: header generator (external command or static table) and retries
//   - [logging]: logging level, format, output and pool statistics schedule
//   - [metrics]: Prometheus endpoint
//
// Environment variables:
// Environment variables can be referenced using ${VAR} or ${VAR:default} syntax.
// For example: command = "${ANISETTE_HELPER:/usr/local/bin/anisette-helper}"
package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Pool     PoolConfig     `toml:"pool"`
	Provider ProviderConfig `toml:"provider"`
	Logging  LoggingConfig  `toml:"logging"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Host                     string          `toml:"host"`
	Port                     int             `toml:"port"`
	RequestTimeoutSeconds    int             `toml:"request_timeout_seconds"`
	ReadHeaderTimeoutSeconds int             `toml:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int             `toml:"shutdown_timeout_seconds"`
	RateLimit                RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig представляет ограничение частоты запросов
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// PoolConfig представляет конфигурацию пула воркеров
type PoolConfig struct {
	Size      int    `toml:"size"`
	QueueSize int    `toml:"queue_size"` // 0 = без ограничения
	Overload  string `toml:"overload"`   // block, reject
}

// ProviderConfig представляет конфигурацию генератора заголовков
type ProviderConfig struct {
	Type           string            `toml:"type"` // command, static
	Command        string            `toml:"command"`
	Args           []string          `toml:"args"`
	Env            []string          `toml:"env"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	Headers        map[string]string `toml:"headers"`
	RetryAttempts  int               `toml:"retry_attempts"`
	RetryBackoffMs int               `toml:"retry_backoff_ms"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	Output        string `toml:"output"`
	StatsSchedule string `toml:"stats_schedule"` // cron; пусто = отключено
}

// MetricsConfig представляет конфигурацию Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

// RequestTimeout returns zero when requests are not bounded.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

func (s ServerConfig) ReadHeaderTimeout() time.Duration {
	return time.Duration(s.ReadHeaderTimeoutSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p ProviderConfig) RetryBackoff() time.Duration {
	return time.Duration(p.RetryBackoffMs) * time.Millisecond
}
