package config

const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 4321
	DefaultReadHeaderTimeout = 10
	DefaultShutdownTimeout   = 10
	DefaultRateLimitRPS      = 10
	DefaultRateLimitBurst    = 20

	DefaultPoolSize = 20
	DefaultOverload = "block"

	DefaultProviderType    = "command"
	DefaultProviderCommand = "anisette-helper"
	DefaultProviderTimeout = 30
	DefaultRetryAttempts   = 1
	DefaultRetryBackoffMs  = 200

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "anisette"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadHeaderTimeoutSeconds == 0 {
		c.Server.ReadHeaderTimeoutSeconds = DefaultReadHeaderTimeout
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = DefaultShutdownTimeout
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = DefaultRateLimitRPS
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = DefaultRateLimitBurst
	}

	if c.Pool.Size == 0 {
		c.Pool.Size = DefaultPoolSize
	}
	if c.Pool.Overload == "" {
		c.Pool.Overload = DefaultOverload
	}

	if c.Provider.Type == "" {
		c.Provider.Type = DefaultProviderType
	}
	if c.Provider.Type == "command" && c.Provider.Command == "" {
		c.Provider.Command = DefaultProviderCommand
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = DefaultProviderTimeout
	}
	if c.Provider.RetryAttempts == 0 {
		c.Provider.RetryAttempts = DefaultRetryAttempts
	}
	if c.Provider.RetryBackoffMs == 0 {
		c.Provider.RetryBackoffMs = DefaultRetryBackoffMs
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}
