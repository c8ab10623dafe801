package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"govinv/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start the HTTP API server. It exposes the same tools as the MCP server:

  GET  /health        store reachability and version
  GET  /tools         tool definitions
  POST /tools/{name}  call a tool, body is the argument object
  POST /rpc           one JSON-RPC message`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default: server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	deps, err := openRuntime(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer deps.Close()

	serverCfg := deps.cfg.Server
	if serveAddr != "" {
		serverCfg.Addr = serveAddr
	}
	server := api.NewServer(serverCfg, deps.tools, deps.store, deps.logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "govinv HTTP API listening on http://%s\n", serverCfg.Addr)
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			deps.logger.Error("Server error", "error", err.Error())
			return err
		}
	case sig := <-shutdown:
		deps.logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}
