package output

import (
	"github.com/samber/lo"

	"github.com/mj1618/autoallow/internal/model"
)

// WindowEntry is one row of the `list` command.
type WindowEntry struct {
	model.Window `yaml:",inline"`
	Target       bool `yaml:"target" json:"target"`
}

// ListResult is the top-level output of the `list` command.
type ListResult struct {
	TS      int64         `yaml:"ts"      json:"ts"`
	Windows []WindowEntry `yaml:"windows" json:"windows"`
}

// Entries marks each window with whether match selects it.
func Entries(windows []model.Window, match func(model.Window) bool) []WindowEntry {
	return lo.Map(windows, func(w model.Window, _ int) WindowEntry {
		return WindowEntry{Window: w, Target: match(w)}
	})
}

// ActionResult reports the outcome of a control command.
type ActionResult struct {
	OK      bool   `yaml:"ok"                json:"ok"`
	Action  string `yaml:"action"            json:"action"`
	Detail  string `yaml:"detail,omitempty"  json:"detail,omitempty"`
	Cleared int    `yaml:"cleared,omitempty" json:"cleared,omitempty"`
}

// WatchEvent is one line of `watch` output.
type WatchEvent struct {
	Type    string          `yaml:"type"              json:"type"`
	TS      int64           `yaml:"ts"                json:"ts"`
	Handle  model.Handle    `yaml:"hwnd"              json:"hwnd"`
	Count   int             `yaml:"count,omitempty"   json:"count,omitempty"`
	Events  int             `yaml:"events,omitempty"  json:"events,omitempty"`
	Elapsed string          `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
	Error   string          `yaml:"error,omitempty"   json:"error,omitempty"`
	Diff    *model.TreeDiff `yaml:"diff,omitempty"    json:"diff,omitempty"`
}
