package panel

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/mj1618/autoallow/internal/logging"
	"github.com/mj1618/autoallow/internal/scan"
)

// TitleWidth is the number of columns window titles are cut to.
const TitleWidth = 60

const clearScreen = "\x1b[H\x1b[2J"

// Truncate cuts s to at most width display columns, ending in "..." when
// anything was removed. Wide characters count as two columns.
func Truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return strings.Repeat(".", max(width, 0))
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-3 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	b.WriteString("...")
	return b.String()
}

// StatusLine summarises the monitor counters.
func StatusLine(s scan.Snapshot) string {
	state := "stopped"
	if s.Running {
		state = "running"
	}
	return fmt.Sprintf("Monitoring: %s | windows %d | active %d | scans %d | clicks %d",
		state, len(s.Windows), s.Active, s.Scans, s.Clicks)
}

func renderWindows(b *strings.Builder, s scan.Snapshot) {
	if len(s.Windows) == 0 {
		b.WriteString("  (no editor windows)\n")
		return
	}
	for _, w := range s.Windows {
		fmt.Fprintf(b, "  %-10s %-8s %s\n", w.Handle, w.State, Truncate(w.Title, TitleWidth))
		fmt.Fprintf(b, "  %-10s %-8s last: %s\n", "", "", w.LastResult.Describe())
	}
	for _, f := range s.Failures {
		fmt.Fprintf(b, "  %-10s failures %d, last %s\n", f.Handle, f.Count, f.LastFailure.Format(logging.TimeFormat))
	}
}

// renderScreen draws the full panel, keeping the last logRows log lines.
func renderScreen(s scan.Snapshot, lines []logging.Line, logRows int) string {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString("autoallow\n")
	b.WriteString(StatusLine(s))
	b.WriteString("\n\nWindows:\n")
	renderWindows(&b, s)
	b.WriteString("\nLog:\n")
	start := max(len(lines)-logRows, 0)
	for _, l := range lines[start:] {
		b.WriteString("  ")
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	b.WriteString("\n" + helpText + "\n> ")
	return b.String()
}

const helpText = "commands: start | stop | scan | reset | clear | quit"
