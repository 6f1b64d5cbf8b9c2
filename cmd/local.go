package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal/shared/cmdutils"
)

var localMessage string

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Chat with the model using the built-in Ethereum tools",
	RunE:  runLocal,
}

func init() {
	localCmd.Flags().StringVarP(&localMessage, "message", "m", "", "Send a single message and exit")
}

func runLocal(cmd *cobra.Command, _ []string) error {
	container, err := loadContainer()
	if err != nil {
		return err
	}
	reg, err := container.LocalRegistry()
	if err != nil {
		return err
	}
	engine, err := container.Engine(reg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if localMessage != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		answer, err := engine.Ask(ctx, localMessage)
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		cmdutils.PrintResponse(out, answer)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runREPL(ctx, os.Stdin, out, engine.Ask)
}
