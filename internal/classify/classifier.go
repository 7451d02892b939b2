package classify

import (
	"log/slog"
	"strings"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// Match is an element accepted by the policy.
type Match struct {
	Control  platform.Control
	Info     model.ElementInfo
	Category string
	Depth    int
	Verdict  Verdict
}

// Candidate is an element of a searched category together with its
// verdict. It is the row format of probe reports.
type Candidate struct {
	model.ElementInfo `yaml:",inline"`
	Category          string  `yaml:"category" json:"category"`
	Depth             int     `yaml:"depth"    json:"depth"`
	Verdict           Verdict `yaml:"verdict"  json:"verdict"`
}

// Classifier searches accessibility trees for the Allow affordance.
type Classifier struct {
	policy Policy
	log    *slog.Logger
}

// New creates a classifier. A nil logger discards output.
func New(p Policy, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Classifier{policy: p, log: log}
}

// Policy returns the policy in use.
func (c *Classifier) Policy() Policy {
	return c.policy
}

type found struct {
	control platform.Control
	depth   int
}

// collect walks the tree once and buckets candidates by category, honouring
// the per-category depth caps.
func (c *Classifier) collect(root platform.Control, maxDepth int) map[string][]found {
	limits := make(map[string]int, len(c.policy.Categories))
	for _, cat := range c.policy.Categories {
		limits[strings.ToLower(cat)] = c.policy.DepthFor(cat, maxDepth)
	}

	buckets := make(map[string][]found)
	platform.Walk(root, maxDepth, func(ctl platform.Control, depth int) bool {
		key := strings.ToLower(ctl.Info().ControlType)
		if limit, ok := limits[key]; ok && (limit <= 0 || depth <= limit) {
			buckets[key] = append(buckets[key], found{control: ctl, depth: depth})
		}
		return true
	})
	return buckets
}

// FindAllowControl returns the first acceptable element in category
// priority order, then tree order. maxDepth counts levels below root.
func (c *Classifier) FindAllowControl(root platform.Control, maxDepth int) (*Match, bool) {
	buckets := c.collect(root, maxDepth)
	for _, cat := range c.policy.Categories {
		for _, f := range buckets[strings.ToLower(cat)] {
			if err := f.control.Refresh(); err != nil {
				c.log.Debug("refresh failed, using last known properties", "error", err)
			}
			info := f.control.Info()
			v := c.policy.Evaluate(info, cat)
			if !v.Accepted {
				if v.Keyword != "" {
					c.log.Debug("candidate rejected", "type", cat, "name", info.Name, "reason", v.Reason)
				}
				continue
			}
			if v.Hidden {
				c.log.Warn("matched element is not visible, clicking anyway", "type", cat, "name", info.Name)
			}
			return &Match{Control: f.control, Info: info, Category: cat, Depth: f.depth, Verdict: v}, true
		}
	}
	return nil, false
}

// Inspect evaluates every named element of the searched categories, in the
// same order FindAllowControl considers them.
func (c *Classifier) Inspect(root platform.Control, maxDepth int) []Candidate {
	buckets := c.collect(root, maxDepth)
	var out []Candidate
	for _, cat := range c.policy.Categories {
		for _, f := range buckets[strings.ToLower(cat)] {
			if err := f.control.Refresh(); err != nil {
				c.log.Debug("refresh failed, using last known properties", "error", err)
			}
			info := f.control.Info()
			if strings.TrimSpace(info.Name) == "" {
				continue
			}
			out = append(out, Candidate{
				ElementInfo: info,
				Category:    cat,
				Depth:       f.depth,
				Verdict:     c.policy.Evaluate(info, cat),
			})
		}
	}
	return out
}
