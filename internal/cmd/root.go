package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/portfolioagent/portfolioagent/internal/config"
	"github.com/portfolioagent/portfolioagent/internal/logging"
)

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-agent",
	Short: "Intent-routing chat agent",
	Long: `portfolio-agent answers chat messages by classifying each one as a
greeting, a question about the portfolio documents, or a task-management
request, and routing it to a local model with a remote fallback.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logging.Setup(cfg.LogLevel, cfg.Environment)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}
