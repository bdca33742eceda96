package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/anisette/internal/app"
	"github.com/aatumaykin/anisette/internal/config"
	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/version"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	envFile    string
	logLevel   string
	poolSize   int
}

// newRootCmd builds the command tree. The root command runs the server.
func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "anisette [port]",
		Short: "Serve authentication headers over a loopback HTTP endpoint",
		Long: `anisette runs a local HTTP server that answers GET / with a freshly
generated set of authentication headers as a JSON object.

Header generation is slow and blocking; it runs on a bounded worker pool
so the server stays responsive. The optional port argument defaults to 4321.`,
		Version:       version.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to TOML configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to .env file (ignored if missing)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.IntVar(&opts.poolSize, "pool-size", 0, "Override worker pool size")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runServer(ctx context.Context, opts *options, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Server.Port = parsePort(args, cfg.Server.Port)

	if err := validateConfig(cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	log.Info(version.FormatStartupMessage(),
		logger.Field{Key: "addr", Value: cfg.Server.Addr()},
		logger.Field{Key: "go_version", Value: version.GoVersion})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, log).Run(ctx); err != nil {
		log.Error("server stopped with error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}

// parsePort reads the optional positional port. A missing, unparseable or
// out-of-range value falls back to the configured port.
func parsePort(args []string, fallback int) int {
	if len(args) == 0 {
		return fallback
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 1 || port > 65535 {
		return fallback
	}
	return port
}

// loadConfig загружает .env, конфигурацию и применяет флаги
func loadConfig(opts *options) (*config.Config, error) {
	if err := config.LoadEnvOptional(opts.envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.poolSize > 0 {
		cfg.Pool.Size = opts.poolSize
	}
	return cfg, nil
}

func validateConfig(cfg *config.Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
