package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aatumaykin/anisette/internal/cron"
)

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := expandEnvVars(&cfg); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault загружает файл, а при пустом пути возвращает конфигурацию по умолчанию
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := expandEnvVars(cfg); err != nil {
			return nil, fmt.Errorf("failed to expand environment variables: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() []error {
	var errors []error

	// Проверка server
	if err := validateLoopback(c.Server.Host); err != nil {
		errors = append(errors, err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Errorf("server.port must be between 0 and 65535 (got %d)", c.Server.Port))
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("server.request_timeout_seconds must be >= 0"))
	}
	if c.Server.ReadHeaderTimeoutSeconds < 1 {
		errors = append(errors, fmt.Errorf("server.read_header_timeout_seconds must be >= 1"))
	}
	if c.Server.ShutdownTimeoutSeconds < 1 {
		errors = append(errors, fmt.Errorf("server.shutdown_timeout_seconds must be >= 1"))
	}
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			errors = append(errors, fmt.Errorf("server.rate_limit.rps must be > 0 when rate limit is enabled"))
		}
		if c.Server.RateLimit.Burst < 1 {
			errors = append(errors, fmt.Errorf("server.rate_limit.burst must be >= 1 when rate limit is enabled"))
		}
	}

	// Проверка pool
	if c.Pool.Size < 1 {
		errors = append(errors, fmt.Errorf("pool.size must be >= 1 (got %d)", c.Pool.Size))
	}
	if c.Pool.QueueSize < 0 {
		errors = append(errors, fmt.Errorf("pool.queue_size must be >= 0 (got %d)", c.Pool.QueueSize))
	}
	switch c.Pool.Overload {
	case "block", "reject":
	default:
		errors = append(errors, fmt.Errorf("invalid pool.overload: %s (expected: block, reject)", c.Pool.Overload))
	}

	// Проверка provider
	switch c.Provider.Type {
	case "command":
		if c.Provider.Command == "" {
			errors = append(errors, fmt.Errorf("provider.command is required when provider type is 'command'"))
		}
	case "static":
		if len(c.Provider.Headers) == 0 {
			errors = append(errors, fmt.Errorf("provider.headers cannot be empty when provider type is 'static'"))
		}
		for name, value := range c.Provider.Headers {
			if name == "" {
				errors = append(errors, fmt.Errorf("provider.headers contains empty header name"))
			} else if value == "" {
				errors = append(errors, formatValidationError("provider.headers."+name, "value cannot be empty", ""))
			} else if strings.ContainsAny(value, "\r\n") {
				errors = append(errors, formatValidationError("provider.headers."+name, "value contains line breaks", value))
			}
		}
	default:
		errors = append(errors, fmt.Errorf("invalid provider.type: %s (expected: command, static)", c.Provider.Type))
	}
	if c.Provider.TimeoutSeconds < 1 {
		errors = append(errors, fmt.Errorf("provider.timeout_seconds must be >= 1"))
	}
	if c.Provider.RetryAttempts < 1 {
		errors = append(errors, fmt.Errorf("provider.retry_attempts must be >= 1"))
	}
	if c.Provider.RetryBackoffMs < 0 {
		errors = append(errors, fmt.Errorf("provider.retry_backoff_ms must be >= 0"))
	}

	// Проверка logging config
	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Logging.StatsSchedule != "" {
		if _, err := cron.ParseSchedule(c.Logging.StatsSchedule); err != nil {
			errors = append(errors, fmt.Errorf("invalid logging.stats_schedule: %w", err))
		}
	}

	// Проверка metrics
	if c.Metrics.Enabled {
		if !strings.HasPrefix(c.Metrics.Path, "/") || c.Metrics.Path == "/" {
			errors = append(errors, fmt.Errorf("metrics.path must start with '/' and differ from '/' (got %q)", c.Metrics.Path))
		}
	}

	return errors
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// validateLoopback разрешает только loopback адреса
func validateLoopback(host string) error {
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	if strings.EqualFold(host, "localhost") {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("server.host must be a loopback address (got %s)", host)
	}
	return nil
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) error {
	// Provider command
	if strings.HasPrefix(c.Provider.Command, "${") {
		c.Provider.Command = expandEnv(c.Provider.Command)
	}
	c.Provider.Command = expandHome(c.Provider.Command)

	for i, arg := range c.Provider.Args {
		c.Provider.Args[i] = expandEnv(arg)
	}
	for i, kv := range c.Provider.Env {
		if key, value, ok := strings.Cut(kv, "="); ok {
			c.Provider.Env[i] = key + "=" + expandEnv(value)
		}
	}

	// Static headers
	for name, value := range c.Provider.Headers {
		c.Provider.Headers[name] = expandEnv(value)
	}

	// Log output
	if strings.HasPrefix(c.Logging.Output, "${") {
		c.Logging.Output = expandEnv(c.Logging.Output)
	}

	return nil
}

// expandEnv расширяет переменную окружения формата ${VAR:default}
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	// Без значения по умолчанию
	return os.Getenv(s[2:end])
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
