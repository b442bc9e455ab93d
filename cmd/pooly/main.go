package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pooly/internal/config"
	"pooly/internal/logging"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string

	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pooly",
		Short:         "PoolyAI catalog assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			closer, err := logging.Setup(logging.Options{
				Level:      cfg.Log.Level,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			opts.cfg = cfg
			opts.logCloser = closer
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logCloser != nil {
				opts.logCloser.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "pooly.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts),
		newSearchCmd(opts),
		newRegenerateCmd(opts),
		newSessionsCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
