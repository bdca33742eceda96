package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/anisette/internal/app"
	"github.com/aatumaykin/anisette/internal/headers"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one set of headers and print it",
		Long: `Run the header provider once on a single-worker pool and print the
result to stdout. Diagnostics go to stderr and the exit code is 1 on failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := headers.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := validateConfig(cfg); err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if timeout := cfg.Server.RequestTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			h, err := app.GenerateOnce(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to generate headers: %w", err)
			}

			out, err := headers.Encode(h, f)
			if err != nil {
				return err
			}
			// Бинарный msgpack выводится как есть, без перевода строки
			if f != headers.FormatMsgpack {
				out = append(out, '\n')
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml, base64, msgpack)")

	return cmd
}
