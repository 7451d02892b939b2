package panel

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/autoallow/internal/logging"
	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/scan"
)

type fakeController struct {
	mu      sync.Mutex
	calls   []string
	snap    scan.Snapshot
	updates chan struct{}
	cleared int
	cmdErr  error
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan struct{}, 1)}
}

func (c *fakeController) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *fakeController) Start(context.Context) error   { c.record("start"); return c.cmdErr }
func (c *fakeController) Stop(context.Context) error    { c.record("stop"); return c.cmdErr }
func (c *fakeController) ScanNow(context.Context) error { c.record("scan"); return c.cmdErr }
func (c *fakeController) Reset(context.Context) (int, error) {
	c.record("reset")
	return c.cleared, nil
}
func (c *fakeController) Snapshot() scan.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}
func (c *fakeController) Updates() <-chan struct{} { return c.updates }

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "main.go - Visual Studio Code", 60, "main.go - Visual Studio Code"},
		{"exact", "abcdef", 6, "abcdef"},
		{"cut", "abcdefghij", 8, "abcde..."},
		{"wide", "允許允許允許", 8, "允許..."},
		{"wide odd", "允許允許允許", 9, "允許允..."},
		{"tiny", "abcdef", 2, ".."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncate_TitleWidth(t *testing.T) {
	title := strings.Repeat("x", 80) + " - Visual Studio Code"
	got := Truncate(title, TitleWidth)
	if len(got) != TitleWidth || !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate = %q (%d columns)", got, len(got))
	}
}

func TestStatusLine(t *testing.T) {
	s := scan.Snapshot{
		Running: true,
		Scans:   120,
		Clicks:  4,
		Active:  1,
		Windows: make([]scan.TargetWindow, 3),
	}
	want := "Monitoring: running | windows 3 | active 1 | scans 120 | clicks 4"
	if got := StatusLine(s); got != want {
		t.Errorf("StatusLine = %q, want %q", got, want)
	}
}

func TestRenderScreen(t *testing.T) {
	s := scan.Snapshot{
		Windows: []scan.TargetWindow{{
			Handle:     68142,
			Title:      "main.go - Visual Studio Code",
			State:      scan.StateActive,
			LastResult: scan.ScanResult{Status: scan.StatusClicked, ControlName: "Allow", Method: "invoke"},
		}},
		Failures: []scan.FailureRecord{{Handle: 9, Count: 3, LastFailure: time.Date(2024, 1, 1, 10, 0, 5, 0, time.Local)}},
	}
	var lines []logging.Line
	for i := range 20 {
		lines = append(lines, logging.Line{Level: slog.LevelInfo, Message: "line " + string(rune('a'+i))})
	}

	out := renderScreen(s, lines, 5)
	if !strings.HasPrefix(out, clearScreen) {
		t.Error("screen should start by clearing")
	}
	for _, want := range []string{
		"68142",
		"ACTIVE",
		`clicked "Allow" (invoke)`,
		"failures 3, last 10:00:05",
		"line t",
		"line p",
		helpText,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("screen missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "line o") {
		t.Error("screen should only keep the last 5 log lines")
	}
}

func TestRenderScreen_NoWindows(t *testing.T) {
	out := renderScreen(scan.Snapshot{}, nil, 5)
	if !strings.Contains(out, "(no editor windows)") {
		t.Errorf("screen = %q", out)
	}
}

func TestRun_LineModeCommands(t *testing.T) {
	ctl := newFakeController()
	ctl.cleared = 2
	var out bytes.Buffer
	p := New(ctl, nil, Options{
		Out: &out,
		In:  strings.NewReader("start\nscan\nbogus\nreset\nstop\nclear\nquit\nstart\n"),
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Run should return on quit, not on timeout")
	}

	want := []string{"start", "scan", "reset", "stop"}
	if strings.Join(ctl.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", ctl.calls, want)
	}
	text := out.String()
	for _, s := range []string{
		"Monitoring: stopped",
		`unknown command "bogus"`,
		"reset: cleared 2 failure records",
		"log cleared",
	} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
	if strings.Contains(text, clearScreen) {
		t.Error("line mode should not clear the screen")
	}
}

func TestRun_CommandFailureIsReported(t *testing.T) {
	ctl := newFakeController()
	ctl.cmdErr = scan.ErrMonitorStopped
	var out bytes.Buffer
	p := New(ctl, nil, Options{Out: &out, In: strings.NewReader("start\nscan\nquit\n")}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{"start failed: monitor is not running", "scan failed: monitor is not running"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_LineModeLogsAndStatus(t *testing.T) {
	ctl := newFakeController()
	logs := make(chan logging.Line, 4)
	in, feed := ioPipe()
	var out syncBuffer
	p := New(ctl, logs, Options{Out: &out, In: in}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	logs <- logging.Line{Level: slog.LevelInfo, Message: "clicked", Attrs: `name=Allow`}
	waitFor(t, &out, "[INFO] clicked name=Allow")

	ctl.mu.Lock()
	ctl.snap = scan.Snapshot{Running: true, Clicks: 1}
	ctl.mu.Unlock()
	ctl.updates <- struct{}{}
	waitFor(t, &out, "Monitoring: running")

	feed.Close()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_QuietLogsKeepsLinesOffScreen(t *testing.T) {
	ctl := newFakeController()
	logs := make(chan logging.Line)
	in, feed := ioPipe()
	var out syncBuffer
	p := New(ctl, logs, Options{Out: &out, In: in, QuietLogs: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	logs <- logging.Line{Level: slog.LevelInfo, Message: "clicked"}
	ctl.mu.Lock()
	ctl.snap = scan.Snapshot{Running: true, Clicks: 1}
	ctl.mu.Unlock()
	ctl.updates <- struct{}{}
	waitFor(t, &out, "Monitoring: running")

	feed.Close()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(out.String(), "clicked") {
		t.Errorf("quiet line mode printed a log line:\n%s", out.String())
	}
	if len(p.lines) != 1 {
		t.Errorf("kept %d lines, want 1", len(p.lines))
	}
}

func TestRun_InteractiveRedraws(t *testing.T) {
	ctl := newFakeController()
	var out bytes.Buffer
	p := New(ctl, nil, Options{Out: &out, In: strings.NewReader("quit\n"), Interactive: true}, nil)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), clearScreen) || !strings.Contains(out.String(), "Windows:") {
		t.Errorf("interactive output = %q", out.String())
	}
}

func TestAppendLine_KeepsMax(t *testing.T) {
	p := New(newFakeController(), nil, Options{MaxLines: 3}, nil)
	for i := range 5 {
		p.appendLine(logging.Line{Message: string(rune('a' + i))})
	}
	if len(p.lines) != 3 || p.lines[0].Message != "c" || p.lines[2].Message != "e" {
		t.Errorf("lines = %+v", p.lines)
	}
}

func TestRenderWindows_PendingResult(t *testing.T) {
	var b strings.Builder
	renderWindows(&b, scan.Snapshot{Windows: []scan.TargetWindow{{Handle: model.Handle(7), Title: "t", State: scan.StateNew}}})
	if !strings.Contains(b.String(), "7") || !strings.Contains(b.String(), "pending") {
		t.Errorf("rows = %q", b.String())
	}
}
