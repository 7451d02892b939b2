package server

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/autoallow/internal/dump"
	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/output"
)

// commandTimeout bounds how long a tool waits for the monitor.
const commandTimeout = 10 * time.Second

// resultToText serializes a tool result to YAML for MCP response.
func resultToText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func actionResult(action, detail string) *mcp.CallToolResult {
	return mcp.NewToolResultText(resultToText(output.ActionResult{OK: true, Action: action, Detail: detail}))
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(resultToText(s.monitor.Snapshot())), nil
}

func (s *Server) handleWindows(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := request.GetBool("all", false)

	windows, err := s.provider.Enumerator.ListWindows()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := output.Entries(windows, s.cfg.Filter.Match)
	if !all {
		entries = lo.Filter(entries, func(e output.WindowEntry, _ int) bool { return e.Target })
	}
	return mcp.NewToolResultText(resultToText(output.ListResult{
		TS:      time.Now().Unix(),
		Windows: entries,
	})), nil
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.command(ctx, "start", "monitoring started", s.monitor.Start), nil
}

func (s *Server) handleStop(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.command(ctx, "stop", "monitoring stops after the current cycle", s.monitor.Stop), nil
}

func (s *Server) handleScan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.cache.InvalidateAll()
	return s.command(ctx, "scan", "full scan requested", s.monitor.ScanNow), nil
}

// command sends one monitor command, bounded by commandTimeout.
func (s *Server) command(ctx context.Context, action, detail string, fn func(context.Context) error) *mcp.CallToolResult {
	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		return mcp.NewToolResultError(resultToText(output.ActionResult{Action: action, Detail: err.Error()}))
	}
	return actionResult(action, detail)
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	n, err := s.monitor.Reset(rctx)
	if err != nil {
		return mcp.NewToolResultError(resultToText(output.ActionResult{Action: "reset", Detail: err.Error()})), nil
	}
	s.cache.InvalidateAll()
	return mcp.NewToolResultText(resultToText(output.ActionResult{
		OK:      true,
		Action:  "reset",
		Detail:  fmt.Sprintf("cleared %d failure records", n),
		Cleared: n,
	})), nil
}

func (s *Server) handleDump(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handle := model.Handle(request.GetInt("hwnd", 0))
	opts := dump.Options{
		Depth: request.GetInt("depth", 0),
		Text:  request.GetString("text", ""),
		Types: splitList(request.GetString("types", "")),
		Prune: request.GetBool("prune", false),
		Top:   s.cfg.DumpTop,
	}
	if opts.Depth <= 0 {
		opts.Depth = s.cfg.DumpDepth
	}

	windows, err := s.provider.Enumerator.ListWindows()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targets := s.cfg.Filter.Filter(windows)
	if handle != 0 {
		targets = lo.Filter(targets, func(w model.Window, _ int) bool { return w.Handle == handle })
		if len(targets) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("window %s is not a monitored editor window", handle)), nil
		}
	}

	report, err := s.dump(targets, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report.Session = s.monitor.Snapshot().Session
	return mcp.NewToolResultText(resultToText(report)), nil
}

// dump reads the windows on a thread of its own, prepared for
// accessibility calls.
func (s *Server) dump(targets []model.Window, opts dump.Options) (dump.Report, error) {
	s.dumpMu.Lock()
	defer s.dumpMu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	end, err := s.provider.Connector.Begin()
	if err != nil {
		return dump.Report{}, fmt.Errorf("prepare accessibility: %w", err)
	}
	defer end()

	report := dump.Collect(targets, opts, time.Now(), func(w model.Window) (dump.WindowDump, error) {
		wd, err := s.cache.Window(s.provider.Connector, w, opts)
		if err != nil {
			s.log.Warn("dump failed", "hwnd", w.Handle, "error", err)
		}
		return wd, err
	})
	return report, nil
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
}
