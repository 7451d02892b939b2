package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/scan"
	"github.com/mj1618/autoallow/internal/server"
	"github.com/mj1618/autoallow/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server controlling the monitor",
	Long: `Start a Model Context Protocol (MCP) server exposing the monitor as tools:
status, windows, start, stop, scan, reset and dump. The monitor runs inside
the server process; logs go to stderr.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  autoallow serve
  autoallow serve --start
  autoallow serve --transport streamable-http --port 8765`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default server.transport from config)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (default server.port from config)")
	serveCmd.Flags().Int("cache-ttl", 500, "Dump cache TTL in milliseconds (0 to disable)")
	serveCmd.Flags().Bool("start", false, "Start monitoring immediately")
	serveCmd.Flags().Bool("demo", false, "Serve the simulated desktop")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")
	start, _ := cmd.Flags().GetBool("start")
	demo, _ := cmd.Flags().GetBool("demo")

	if transport == "" {
		transport = appConfig.Server.Transport
	}
	if port == 0 {
		port = appConfig.Server.Port
	}

	log, err := newConsoleLogger(os.Stderr, appConfig)
	if err != nil {
		return err
	}
	opts, err := scanOptions(appConfig)
	if err != nil {
		return err
	}
	opts.AutoStart = start

	provider, demoDesk, err := openProvider(demo)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mon := scan.NewMonitor(provider, opts, log)
	monErr := make(chan error, 1)
	go func() { monErr <- mon.Run(ctx) }()
	if demoDesk != nil {
		go demoDesk.Run(ctx, demoPromptEvery)
	}

	srv := server.New(mon, provider, server.Config{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
		Version:   version.Version,
		Filter:    opts.Filter,
		DumpDepth: appConfig.Dump.Depth,
		DumpTop:   appConfig.Dump.TopTypes,
	}, log)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	select {
	case err := <-monErr:
		if err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	}
}
