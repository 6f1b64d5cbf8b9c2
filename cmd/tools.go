package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal/mcp"
	"github.com/toolbridge/toolbridge/internal/tools"
)

var toolsAddress string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool advertisement adapted from an MCP server",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsAddress, "address", "", "MCP server address (default from config)")
}

func runTools(cmd *cobra.Command, _ []string) error {
	container, err := loadContainer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return mcp.WithSession(ctx, container.SessionConfig(toolsAddress), func(s *mcp.Session) error {
		reg, err := s.Registry(ctx)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(tools.Advertise(reg.List()), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal advertisement: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	})
}
