// Package classify decides whether an accessibility element is the
// transient Allow confirmation affordance.
package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mj1618/autoallow/internal/model"
)

// Generation selects one of the two keyword policies.
type Generation int

const (
	Gen1 Generation = 1
	Gen2 Generation = 2
)

// ParseGeneration converts a config value to a Generation.
func ParseGeneration(n int) (Generation, error) {
	switch Generation(n) {
	case Gen1, Gen2:
		return Generation(n), nil
	default:
		return 0, fmt.Errorf("unknown classifier generation: %d (expected 1 or 2)", n)
	}
}

// Policy is the set of rules applied to each candidate element. Zero
// numeric limits disable the corresponding check.
type Policy struct {
	Generation Generation

	Keywords   []string
	Exclusions []string

	// IDExclusions reject elements whose automation id suggests editor or
	// chat content.
	IDExclusions []string

	// ExactAnyLength accepts a name equal to a keyword regardless of the
	// length limits.
	ExactAnyLength bool

	// MaxRunes rejects longer names unless they match exactly.
	MaxRunes int

	// ContainsMaxRunes bounds the names allowed to match by containment.
	ContainsMaxRunes int

	// TextMaxRunes bounds names of the Text category only.
	TextMaxRunes int

	RequireEnabled bool

	// ClickHidden accepts elements reported as not visible and flags them
	// in the verdict; otherwise they are rejected.
	ClickHidden bool

	MinWidth, MaxWidth   int
	MinHeight, MaxHeight int

	// Categories are searched in order.
	Categories []string

	// DepthCaps bound the search depth of individual categories.
	DepthCaps map[string]int
}

// Gen1Policy returns the first-generation policy.
func Gen1Policy() Policy {
	return Policy{
		Generation:     Gen1,
		Keywords:       []string{"allow", "允許", "accept", "confirm"},
		Exclusions:     []string{"section", "explorer", "autoallow", "folder", "directory"},
		TextMaxRunes:   30,
		RequireEnabled: true,
		ClickHidden:    true,
		Categories:     append([]string(nil), model.CandidateTypes...),
		DepthCaps: map[string]int{
			model.TypeButton:      20,
			model.TypeSplitButton: 20,
		},
	}
}

// Gen2Policy returns the second-generation policy, the default.
func Gen2Policy() Policy {
	return Policy{
		Generation: Gen2,
		Keywords: []string{
			"allow", "允許", "accept", "接受", "confirm",
			"確認", "yes", "是", "ok", "確定",
		},
		Exclusions: []string{
			"file", "folder", "directory", "section", "explorer", "workspace",
			"deny", "cancel", "disallow", "don't", "do not", "reject", "never", "拒絕", "取消",
			"editor", "chat", "terminal", "sidebar", "side bar",
			"autoallow", "auto allow", "auto-allow",
		},
		IDExclusions: []string{
			"editor", "monaco", "terminal", "markdown", "view-line", "message", "response", "chat-item",
		},
		ExactAnyLength:   true,
		MaxRunes:         50,
		ContainsMaxRunes: 20,
		RequireEnabled:   true,
		MinWidth:         20,
		MaxWidth:         500,
		MinHeight:        15,
		MaxHeight:        100,
		Categories:       append([]string(nil), model.CandidateTypes...),
		DepthCaps: map[string]int{
			model.TypeButton:      20,
			model.TypeSplitButton: 20,
		},
	}
}

// ForGeneration returns the default policy of g.
func ForGeneration(g Generation) Policy {
	if g == Gen1 {
		return Gen1Policy()
	}
	return Gen2Policy()
}

// Verdict is the outcome of evaluating one element.
type Verdict struct {
	Accepted bool   `yaml:"accepted"          json:"accepted"`
	Reason   string `yaml:"reason"            json:"reason"`
	Keyword  string `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Hidden   bool   `yaml:"hidden,omitempty"  json:"hidden,omitempty"`
}

func reject(reason string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(reason, args...)}
}

// Evaluate applies the policy to an element of the given category.
// Exclusions are checked before any keyword so an incidental match never
// wins. Unknown properties pass their check.
func (p Policy) Evaluate(info model.ElementInfo, category string) Verdict {
	name := strings.ToLower(strings.TrimSpace(info.Name))
	if name == "" {
		return reject("no name")
	}
	if ex := firstContained(name, p.Exclusions); ex != "" {
		return reject("excluded keyword %q", ex)
	}

	runes := utf8.RuneCountInString(name)
	exact := firstEqual(name, p.Keywords)
	exactOK := exact != "" && p.ExactAnyLength

	if p.MaxRunes > 0 && runes > p.MaxRunes && !exactOK {
		return reject("name too long (%d > %d)", runes, p.MaxRunes)
	}
	if p.TextMaxRunes > 0 && strings.EqualFold(category, model.TypeText) && runes > p.TextMaxRunes && !exactOK {
		return reject("text too long (%d > %d)", runes, p.TextMaxRunes)
	}

	keyword := exact
	if keyword == "" {
		contained := firstContained(name, p.Keywords)
		if contained == "" {
			return reject("no keyword")
		}
		if p.ContainsMaxRunes > 0 && runes > p.ContainsMaxRunes {
			return Verdict{Reason: fmt.Sprintf("too long for partial match (%d > %d)", runes, p.ContainsMaxRunes), Keyword: contained}
		}
		keyword = contained
	}

	if id := strings.ToLower(info.AutomationID); id != "" {
		if ex := firstContained(id, p.IDExclusions); ex != "" {
			return Verdict{Reason: fmt.Sprintf("automation id mentions %q", ex), Keyword: keyword}
		}
	}
	if p.RequireEnabled && !info.IsEnabled() {
		return Verdict{Reason: "disabled", Keyword: keyword}
	}

	hidden := !info.IsVisible()
	if hidden && !p.ClickHidden {
		return Verdict{Reason: "not visible", Keyword: keyword}
	}

	if b := info.Bounds; b != nil {
		if p.MinWidth > 0 && b.Width < p.MinWidth || p.MaxWidth > 0 && b.Width > p.MaxWidth ||
			p.MinHeight > 0 && b.Height < p.MinHeight || p.MaxHeight > 0 && b.Height > p.MaxHeight {
			return Verdict{Reason: fmt.Sprintf("size %s outside button envelope", b.Size()), Keyword: keyword}
		}
	}

	v := Verdict{Accepted: true, Keyword: keyword, Hidden: hidden}
	switch {
	case exact != "":
		v.Reason = fmt.Sprintf("exact match %q", keyword)
	default:
		v.Reason = fmt.Sprintf("contains %q", keyword)
	}
	if hidden {
		v.Reason += " (not visible)"
	}
	return v
}

// MentionsKeyword reports whether name contains any keyword.
func (p Policy) MentionsKeyword(name string) bool {
	return firstContained(strings.ToLower(name), p.Keywords) != ""
}

// DepthFor returns the search depth of category, limited by maxDepth.
func (p Policy) DepthFor(category string, maxDepth int) int {
	if limit, ok := p.DepthCaps[category]; ok && (maxDepth <= 0 || limit < maxDepth) {
		return limit
	}
	return maxDepth
}

func firstContained(s string, words []string) string {
	for _, w := range words {
		if w != "" && strings.Contains(s, strings.ToLower(w)) {
			return w
		}
	}
	return ""
}

func firstEqual(s string, words []string) string {
	for _, w := range words {
		if s == strings.ToLower(w) {
			return w
		}
	}
	return ""
}
