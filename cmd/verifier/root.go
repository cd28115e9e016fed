package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"docverify/internal/platform/config"
	"docverify/internal/platform/logger"
)

type rootOptions struct {
	logLevel  string
	logFormat string

	cfg    config.Server
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "verifier",
		Short:         "Extract and verify fields of identity documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			opts.cfg = config.FromEnv()
			if opts.logLevel != "" {
				opts.cfg.LogLevel = opts.logLevel
			}
			if opts.logFormat != "" {
				opts.cfg.LogFormat = opts.logFormat
			}
			opts.logger = logger.NewWithWriter(os.Stderr, opts.cfg.LogLevel, opts.cfg.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json or text); defaults to LOG_FORMAT")

	cmd.AddCommand(
		newBatchCmd(opts),
		newExtractCmd(opts),
		newVerifyCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}
