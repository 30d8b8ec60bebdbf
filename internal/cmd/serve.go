package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/portfolioagent/portfolioagent/internal/bootstrap"
	"github.com/portfolioagent/portfolioagent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.Build(ctx, cfg)
		if err != nil {
			return err
		}
		return server.New(cfg, app).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
