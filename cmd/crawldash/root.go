package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"crawldash/internal/config"
	"crawldash/internal/utils"
	"crawldash/internal/version"
)

type configKey struct{}

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "crawldash",
		Short:   "Live dashboard for the crawler backend",
		Version: version.String(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			res, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if res.File != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", res.File)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, res.Config))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.FileName+")")
	flags.String("backend", config.DefaultBackendURL, "crawler backend base URL")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")
	flags.String("log-file", "", `log file ("-" for stdout)`)
	_ = root.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(newServeCmd(), newWatchCmd(), newVersionCmd())
	return root
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// openLogger builds the process logger and makes it the slog default.
func openLogger(cfg *config.Config, fallbackFile string) *utils.Logger {
	opts := cfg.LogOptions()
	if opts.File == "" && fallbackFile != "" {
		opts.File = fallbackFile
	}
	logger := utils.NewLogger(opts)
	slog.SetDefault(logger.Logger)
	return logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "crawldash %s\n", version.String())
			if version.Commit != "" {
				fmt.Fprintf(out, "commit %s (%s)\n", version.Commit, version.Dirty)
			}
			if version.Date != "" {
				fmt.Fprintf(out, "built %s\n", version.Date)
			}
			return nil
		},
	}
}

