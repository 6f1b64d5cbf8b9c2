package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal/mcp"
)

var chatAddress string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the model using the tools of an MCP server",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAddress, "address", "", "MCP server address (e.g. http://localhost:8080/sse)")
	_ = chatCmd.MarkFlagRequired("address")
}

func runChat(cmd *cobra.Command, _ []string) error {
	container, err := loadContainer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mcp.WithSession(ctx, container.SessionConfig(chatAddress), func(s *mcp.Session) error {
		reg, err := s.Registry(ctx)
		if err != nil {
			return err
		}
		engine, err := container.Engine(reg)
		if err != nil {
			return err
		}
		return runREPL(ctx, os.Stdin, cmd.OutOrStdout(), engine.Ask)
	})
}
