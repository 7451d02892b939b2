package scan

import (
	"strings"

	"github.com/mj1618/autoallow/internal/classify"
	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// probeButtonLimit bounds the button names listed when nothing matched.
const probeButtonLimit = 50

// ProbeReport is the detection diagnosis of one window.
type ProbeReport struct {
	Handle     model.Handle         `yaml:"hwnd"                 json:"hwnd"`
	Title      string               `yaml:"title"                json:"title"`
	Depth      int                  `yaml:"depth"                json:"depth"`
	Match      *classify.Candidate  `yaml:"match,omitempty"      json:"match,omitempty"`
	Candidates []classify.Candidate `yaml:"candidates"           json:"candidates"`
	Buttons    []string             `yaml:"buttons,omitempty"    json:"buttons,omitempty"`
	Clicked    bool                 `yaml:"clicked,omitempty"    json:"clicked,omitempty"`
	Method     string               `yaml:"method,omitempty"     json:"method,omitempty"`
	Error      string               `yaml:"error,omitempty"      json:"error,omitempty"`
}

// Probe runs one detection pass over w. Candidates lists every element
// whose name mentions a keyword, with its verdict. When nothing matches,
// Buttons lists the first named buttons so the operator can see what the
// window exposes. With click set the match is activated through d.
func Probe(conn platform.Connector, c *classify.Classifier, d *Dispatcher, w model.Window, depth int, click bool) ProbeReport {
	r := ProbeReport{Handle: w.Handle, Title: w.Title, Depth: depth, Candidates: []classify.Candidate{}}

	tree, err := conn.Connect(w.Handle)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	defer tree.Close()
	root := tree.Root()

	policy := c.Policy()
	for _, cand := range c.Inspect(root, depth) {
		if cand.Verdict.Accepted || policy.MentionsKeyword(cand.Name) {
			r.Candidates = append(r.Candidates, cand)
		}
	}

	match, ok := c.FindAllowControl(root, depth)
	if !ok {
		for _, b := range platform.Descendants(root, model.TypeButton, depth) {
			if name := strings.TrimSpace(b.Info().Name); name != "" {
				r.Buttons = append(r.Buttons, name)
				if len(r.Buttons) == probeButtonLimit {
					break
				}
			}
		}
		return r
	}
	r.Match = &classify.Candidate{
		ElementInfo: match.Info,
		Category:    match.Category,
		Depth:       match.Depth,
		Verdict:     match.Verdict,
	}
	if !click {
		return r
	}
	method, err := d.Activate(match.Control)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Clicked = true
	r.Method = string(method)
	return r
}
