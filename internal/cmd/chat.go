package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portfolioagent/portfolioagent/internal/bootstrap"
)

// messageHandler is the part of the agent the console loop needs.
type messageHandler interface {
	Handle(ctx context.Context, userMessage string) string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agent on the console",
	Long:  `Reads one message per line and prints the agent's reply. Type exit or quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		app, err := bootstrap.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), app.Agent)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runREPL returns on exit/quit (any case), end of input or cancellation.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, h messageHandler) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)

	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			return nil
		}

		reply := h.Handle(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(out, "Bot: %s\n", reply)
	}
}
