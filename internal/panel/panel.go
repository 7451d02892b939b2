// Package panel is the terminal control panel. It owns all presentation
// state in a single goroutine and learns about the monitor only through
// snapshots and log lines.
package panel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bep/debounce"

	"github.com/mj1618/autoallow/internal/logging"
	"github.com/mj1618/autoallow/internal/scan"
)

// commandTimeout bounds how long a command waits for the monitor.
const commandTimeout = 5 * time.Second

// Controller is the part of the monitor the panel drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ScanNow(ctx context.Context) error
	Reset(ctx context.Context) (int, error)
	Snapshot() scan.Snapshot
	Updates() <-chan struct{}
}

// Options configures a Panel.
type Options struct {
	Out         io.Writer
	In          io.Reader
	Interactive bool          // Redraw the whole screen instead of printing lines
	QuietLogs   bool          // Line mode: keep log lines but do not print them
	MaxLines    int           // Log lines kept for display
	LogRows     int           // Log lines shown on screen
	Redraw      time.Duration // Redraw coalescing window
}

// Panel renders monitor state and forwards operator commands.
type Panel struct {
	ctl  Controller
	logs <-chan logging.Line
	opts Options
	log  *slog.Logger

	lines      []logging.Line
	lastStatus string
	redraw     chan struct{}
}

// New creates a panel.
func New(ctl Controller, logs <-chan logging.Line, opts Options, log *slog.Logger) *Panel {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = 500
	}
	if opts.LogRows <= 0 {
		opts.LogRows = 15
	}
	if opts.Redraw <= 0 {
		opts.Redraw = 100 * time.Millisecond
	}
	return &Panel{
		ctl:    ctl,
		logs:   logs,
		opts:   opts,
		log:    log,
		redraw: make(chan struct{}, 1),
	}
}

// Run consumes updates until ctx is done or the operator quits. Closing
// the input stops command handling but not the panel.
func (p *Panel) Run(ctx context.Context) error {
	input := make(chan string)
	go readLines(ctx, p.opts.In, input)

	schedule := debounce.New(p.opts.Redraw)
	requestRedraw := func() {
		schedule(func() {
			select {
			case p.redraw <- struct{}{}:
			default:
			}
		})
	}

	if p.opts.Interactive {
		p.draw()
	} else {
		p.printStatus()
		fmt.Fprintln(p.opts.Out, helpText)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.ctl.Updates():
			if p.opts.Interactive {
				requestRedraw()
			} else {
				p.printStatus()
			}
		case l := <-p.logs:
			p.appendLine(l)
			switch {
			case p.opts.Interactive:
				requestRedraw()
			case !p.opts.QuietLogs:
				fmt.Fprintln(p.opts.Out, l.String())
			}
		case <-p.redraw:
			p.draw()
		case cmd, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if quit := p.handle(ctx, cmd); quit {
				return nil
			}
			if p.opts.Interactive {
				p.draw()
			}
		}
	}
}

// handle applies one command and reports whether the panel should exit.
func (p *Panel) handle(ctx context.Context, cmd string) bool {
	p.log.Debug("panel command", "command", cmd)
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "":
	case "start":
		p.command(ctx, "start", p.ctl.Start)
	case "stop":
		p.command(ctx, "stop", p.ctl.Stop)
	case "scan":
		p.command(ctx, "scan", p.ctl.ScanNow)
	case "reset":
		rctx, cancel := context.WithTimeout(ctx, commandTimeout)
		n, err := p.ctl.Reset(rctx)
		cancel()
		if err != nil {
			p.notice(slog.LevelWarn, "reset failed: "+err.Error())
			break
		}
		p.notice(slog.LevelInfo, fmt.Sprintf("reset: cleared %d failure records", n))
	case "clear":
		p.lines = p.lines[:0]
		if !p.opts.Interactive {
			fmt.Fprintln(p.opts.Out, "log cleared")
		}
	case "quit", "q", "exit":
		return true
	case "help", "?":
		p.notice(slog.LevelInfo, helpText)
	default:
		p.notice(slog.LevelWarn, fmt.Sprintf("unknown command %q", cmd))
	}
	return false
}

func (p *Panel) command(ctx context.Context, name string, fn func(context.Context) error) {
	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		p.notice(slog.LevelWarn, name+" failed: "+err.Error())
	}
}

func (p *Panel) notice(level slog.Level, msg string) {
	l := logging.Line{Time: time.Now(), Level: level, Message: msg}
	p.appendLine(l)
	if !p.opts.Interactive {
		fmt.Fprintln(p.opts.Out, l.String())
	}
}

func (p *Panel) appendLine(l logging.Line) {
	p.lines = append(p.lines, l)
	if over := len(p.lines) - p.opts.MaxLines; over > 0 {
		p.lines = append(p.lines[:0], p.lines[over:]...)
	}
}

// printStatus writes the status line when it changed. Scan counts are left
// out of the comparison so an idle monitor stays quiet.
func (p *Panel) printStatus() {
	s := p.ctl.Snapshot()
	key := fmt.Sprintf("%t|%d|%d|%d", s.Running, len(s.Windows), s.Active, s.Clicks)
	if key == p.lastStatus {
		return
	}
	p.lastStatus = key
	fmt.Fprintln(p.opts.Out, StatusLine(s))
}

func (p *Panel) draw() {
	io.WriteString(p.opts.Out, renderScreen(p.ctl.Snapshot(), p.lines, p.opts.LogRows))
}

func readLines(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)
	if r == nil {
		return
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case out <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}
