// Package dump reads whole accessibility trees of editor windows for
// diagnostics.
package dump

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// Options controls what a dump contains.
type Options struct {
	Depth int      // Max depth below the window (0 = unlimited)
	Types []string // Only include these control types (empty = all)
	Text  string   // Only include elements mentioning this text
	Prune bool     // Drop anonymous containers
	Top   int      // Number of type statistics to keep
}

// WindowDump is the dump of one window.
type WindowDump struct {
	Handle   model.Handle        `yaml:"hwnd"            json:"hwnd"`
	Title    string              `yaml:"title"           json:"title"`
	Elements []model.FlatElement `yaml:"elements"        json:"elements"`
	Error    string              `yaml:"error,omitempty" json:"error,omitempty"`
}

// TypeCount is the number of elements of one control type.
type TypeCount struct {
	Type  string `yaml:"type"  json:"type"`
	Count int    `yaml:"count" json:"count"`
}

// Report is the result of dumping a set of windows.
type Report struct {
	Session string       `yaml:"session,omitempty" json:"session,omitempty"`
	TS      int64        `yaml:"ts"                json:"ts"`
	Depth   int          `yaml:"depth"             json:"depth"`
	Total   int          `yaml:"total"             json:"total"`
	Types   []TypeCount  `yaml:"types"             json:"types"`
	Windows []WindowDump `yaml:"windows"           json:"windows"`
}

// Window dumps one window. A connection failure is returned as an error;
// the caller decides whether it aborts the dump.
func Window(conn platform.Connector, w model.Window, opts Options) (WindowDump, error) {
	wd := WindowDump{Handle: w.Handle, Title: w.Title, Elements: []model.FlatElement{}}
	tree, err := conn.Connect(w.Handle)
	if err != nil {
		return wd, fmt.Errorf("connect window %s: %w", w.Handle, err)
	}
	defer tree.Close()

	elements := []model.Element{platform.Snapshot(tree.Root(), opts.Depth)}
	if opts.Prune {
		elements = model.PruneEmptyContainers(elements)
	}
	if opts.Text != "" {
		elements = model.FilterByText(elements, opts.Text)
	}
	if len(opts.Types) > 0 {
		elements = model.FilterElements(elements, opts.Types)
	}
	if flat := model.FlattenElements(elements); flat != nil {
		wd.Elements = flat
	}
	return wd, nil
}

// Windows dumps every window. Windows that cannot be read are kept with
// their error so the report shows them.
func Windows(conn platform.Connector, windows []model.Window, opts Options, now time.Time) Report {
	return Collect(windows, opts, now, func(w model.Window) (WindowDump, error) {
		return Window(conn, w, opts)
	})
}

// Collect builds a report from per-window reads.
func Collect(windows []model.Window, opts Options, now time.Time, read func(model.Window) (WindowDump, error)) Report {
	r := Report{TS: now.Unix(), Depth: opts.Depth, Windows: []WindowDump{}}
	for _, w := range windows {
		wd, err := read(w)
		if err != nil {
			wd.Error = err.Error()
		}
		r.Windows = append(r.Windows, wd)
	}
	r.Types = Stats(r.Windows, opts.Top)
	r.Total = lo.SumBy(r.Windows, func(wd WindowDump) int { return len(wd.Elements) })
	return r
}

// Stats counts elements by control type, most frequent first, ties by
// name. top <= 0 keeps every type.
func Stats(windows []WindowDump, top int) []TypeCount {
	all := lo.FlatMap(windows, func(wd WindowDump, _ int) []model.FlatElement { return wd.Elements })
	counts := lo.CountValuesBy(all, func(el model.FlatElement) string { return el.Type })

	stats := lo.MapToSlice(counts, func(t string, n int) TypeCount { return TypeCount{Type: t, Count: n} })
	slices.SortFunc(stats, func(a, b TypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	if top > 0 && len(stats) > top {
		stats = stats[:top]
	}
	return stats
}

// WriteText renders the report as an indented listing.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	for _, wd := range r.Windows {
		fmt.Fprintf(&b, "== %s  %s\n", wd.Handle, wd.Title)
		if wd.Error != "" {
			fmt.Fprintf(&b, "   error: %s\n", wd.Error)
			continue
		}
		for _, el := range wd.Elements {
			b.WriteString(strings.Repeat("  ", el.Depth))
			fmt.Fprintf(&b, "[%s]", el.Type)
			if el.Name != "" {
				fmt.Fprintf(&b, " %q", el.Name)
			}
			if el.ID != "" {
				fmt.Fprintf(&b, " id=%s", el.ID)
			}
			if el.Pos != "" {
				fmt.Fprintf(&b, " %s %s", el.Pos, el.Size)
			}
			if el.Enabled != nil && !*el.Enabled {
				b.WriteString(" disabled")
			}
			if el.Visible != nil && !*el.Visible {
				b.WriteString(" offscreen")
			}
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "\n%d elements in %d windows\n", r.Total, len(r.Windows))
	for _, tc := range r.Types {
		fmt.Fprintf(&b, "  %-14s %d\n", tc.Type, tc.Count)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ExportName returns the default export file name for a dump taken at t.
func ExportName(t time.Time) string {
	return "vscode_scan_" + t.Format("20060102_150405") + ".json"
}
