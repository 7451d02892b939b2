// Package scan runs the monitoring loop: it finds editor windows, connects
// to their accessibility trees, classifies controls and clicks the Allow
// affordance.
package scan

import (
	"strings"

	"github.com/samber/lo"

	"github.com/mj1618/autoallow/internal/model"
)

// TargetFilter selects the editor windows to scan.
type TargetFilter struct {
	// Process is the lowercase executable base name without ".exe".
	Process string
	// TitleMarker must appear in the window title.
	TitleMarker string
	// ExcludedMarkers drop windows whose title contains any of them.
	ExcludedMarkers []string
}

// DefaultTargetFilter matches Visual Studio Code windows other than
// extension development hosts.
func DefaultTargetFilter() TargetFilter {
	return TargetFilter{
		Process:         "code",
		TitleMarker:     "Visual Studio Code",
		ExcludedMarkers: []string{"Extension Development Host"},
	}
}

// Match applies the exclusion rules first, then the inclusion rule.
func (f TargetFilter) Match(w model.Window) bool {
	for _, marker := range f.ExcludedMarkers {
		if marker != "" && strings.Contains(w.Title, marker) {
			return false
		}
	}
	if strings.TrimSpace(w.Title) == "" {
		return false
	}
	return w.Process == f.Process && strings.Contains(w.Title, f.TitleMarker)
}

// Filter keeps matching windows in enumeration order.
func (f TargetFilter) Filter(windows []model.Window) []model.Window {
	return lo.Filter(windows, func(w model.Window, _ int) bool {
		return f.Match(w)
	})
}
