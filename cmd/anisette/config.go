package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Validate and inspect anisette configuration.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Long: `Validate the configuration file and check for errors.
Without an argument the --config file (or the built-in defaults) is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.configPath = args[0]
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := validateConfig(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration is valid")
			fmt.Fprintf(out, "  listen:   %s\n", cfg.Server.Addr())
			fmt.Fprintf(out, "  pool:     size=%d queue=%d overload=%s\n",
				cfg.Pool.Size, cfg.Pool.QueueSize, cfg.Pool.Overload)
			fmt.Fprintf(out, "  provider: %s\n", cfg.Provider.Type)

			// Значения статических заголовков не выводятся целиком
			masked := cfg.Provider.MaskedHeaders()
			names := make([]string, 0, len(masked))
			for name := range masked {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "    %s: %s\n", name, masked[name])
			}
			return nil
		},
	})

	return cmd
}
