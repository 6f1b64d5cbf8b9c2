package cmd

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serveHost  string
	servePort  int
	serveStdio bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built-in Ethereum tools over MCP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "Serve over stdin/stdout instead of HTTP")
}

func runServe(_ *cobra.Command, _ []string) error {
	container, err := loadContainer()
	if err != nil {
		return err
	}
	srv, err := container.MCPServer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveStdio {
		return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	}

	addr := container.Config().Server.Addr()
	if serveHost != "" || servePort != 0 {
		host, port, _ := net.SplitHostPort(addr)
		if serveHost != "" {
			host = serveHost
		}
		if servePort != 0 {
			port = strconv.Itoa(servePort)
		}
		addr = net.JoinHostPort(host, port)
	}

	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
