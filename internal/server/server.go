// Package server exposes a running monitor as Model Context Protocol tools.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/autoallow/internal/platform"
	"github.com/mj1618/autoallow/internal/scan"
)

// Monitor is the part of scan.Monitor the tools drive.
type Monitor interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ScanNow(ctx context.Context) error
	Reset(ctx context.Context) (int, error)
	Snapshot() scan.Snapshot
}

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	Version   string
	Filter    scan.TargetFilter
	DumpDepth int
	DumpTop   int
}

// Server serves the monitor tools.
type Server struct {
	cfg      Config
	monitor  Monitor
	provider *platform.Provider
	cache    *DumpCache
	log      *slog.Logger

	// dumpMu serializes tree reads; each one prepares its own OS thread.
	dumpMu sync.Mutex
	mcp    *mcpserver.MCPServer
}

// New creates and configures an MCP server with all autoallow tools.
func New(mon Monitor, p *platform.Provider, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:      cfg,
		monitor:  mon,
		provider: p,
		cache:    NewDumpCache(cfg.CacheTTL),
		log:      log,
	}
	s.mcp = mcpserver.NewMCPServer("autoallow", cfg.Version)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve() error {
	s.log.Info("mcp server starting", "transport", s.cfg.Transport, "port", s.cfg.Port)
	switch s.cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", s.cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report the monitor state: running flag, scan and click counters, tracked editor windows with their last result, and windows in connection cooldown"),
		),
		s.handleStatus,
	)

	s.mcp.AddTool(
		mcp.NewTool("windows",
			mcp.WithDescription("List visible top-level windows and whether each one is a monitored editor window"),
			mcp.WithBoolean("all", mcp.Description("Include windows that are not editor windows")),
		),
		s.handleWindows,
	)

	s.mcp.AddTool(
		mcp.NewTool("start",
			mcp.WithDescription("Start periodic scanning for Allow prompts"),
		),
		s.handleStart,
	)

	s.mcp.AddTool(
		mcp.NewTool("stop",
			mcp.WithDescription("Stop periodic scanning after the current cycle"),
		),
		s.handleStop,
	)

	s.mcp.AddTool(
		mcp.NewTool("scan",
			mcp.WithDescription("Run a full scan of every editor window now"),
		),
		s.handleScan,
	)

	s.mcp.AddTool(
		mcp.NewTool("reset",
			mcp.WithDescription("Clear connection failure records and return active windows to shallow scanning"),
		),
		s.handleReset,
	)

	s.mcp.AddTool(
		mcp.NewTool("dump",
			mcp.WithDescription("Dump the accessibility tree of editor windows with per-type statistics"),
			mcp.WithNumber("hwnd", mcp.Description("Only dump this window handle")),
			mcp.WithNumber("depth", mcp.Description("Max depth to traverse (0 = configured default)")),
			mcp.WithString("text", mcp.Description("Only include elements whose name, id or class contains this text")),
			mcp.WithString("types", mcp.Description("Comma-separated control types to keep (e.g. Button,SplitButton)")),
			mcp.WithBoolean("prune", mcp.Description("Drop anonymous Pane/Group/Custom containers")),
		),
		s.handleDump,
	)
}
