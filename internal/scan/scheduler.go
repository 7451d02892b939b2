package scan

import (
	"time"

	"github.com/samber/lo"

	"github.com/mj1618/autoallow/internal/classify"
	"github.com/mj1618/autoallow/internal/model"
)

// State is the scheduling state of a known window.
type State string

const (
	StateNew     State = "NEW"
	StateShallow State = "SHALLOW"
	StateActive  State = "ACTIVE"
)

// Status is the outcome of one window in one cycle.
type Status string

const (
	StatusClicked     Status = "clicked"
	StatusNoMatch     Status = "no-match"
	StatusSkipped     Status = "skipped"
	StatusWaiting     Status = "waiting"
	StatusGone        Status = "gone"
	StatusError       Status = "error"
	StatusClickFailed Status = "click-failed"
)

// ScanResult is the outcome of scanning one window.
type ScanResult struct {
	Status      Status `yaml:"status"                 json:"status"`
	Matched     bool   `yaml:"matched"                json:"matched"`
	ControlName string `yaml:"control_name,omitempty" json:"control_name,omitempty"`
	ControlType string `yaml:"control_type,omitempty" json:"control_type,omitempty"`
	Method      string `yaml:"method,omitempty"       json:"method,omitempty"`
	Depth       int    `yaml:"depth,omitempty"        json:"depth,omitempty"`
	Detail      string `yaml:"detail,omitempty"       json:"detail,omitempty"`
}

// TargetWindow is a window known to the scheduler.
type TargetWindow struct {
	Handle     model.Handle `yaml:"hwnd"                json:"hwnd"`
	Title      string       `yaml:"title"               json:"title"`
	State      State        `yaml:"state"               json:"state"`
	LastScan   time.Time    `yaml:"last_scan,omitempty" json:"last_scan,omitempty"`
	LastResult ScanResult   `yaml:"last_result"         json:"last_result"`
}

// Step is the scheduling decision for one window in one cycle. A zero
// Depth means the window waits for the next sweep.
type Step struct {
	Window model.Window
	State  State
	Depth  int
}

// Cadence holds the scheduler's timing and depth parameters.
type Cadence struct {
	ShallowDepth   int
	DeepDepth      int
	SweepInterval  time.Duration
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	// FixedInterval is the loop sleep of generation 1.
	FixedInterval time.Duration
}

// DefaultCadence returns the default timings.
func DefaultCadence() Cadence {
	return Cadence{
		ShallowDepth:   8,
		DeepDepth:      30,
		SweepInterval:  3 * time.Second,
		ActiveInterval: 300 * time.Millisecond,
		IdleInterval:   time.Second,
		FixedInterval:  500 * time.Millisecond,
	}
}

// Scheduler decides which windows to scan at which depth. It is owned by
// a single goroutine.
type Scheduler struct {
	gen     classify.Generation
	cadence Cadence
	now     func() time.Time

	known  map[model.Handle]*TargetWindow
	order  []model.Handle
	active map[model.Handle]struct{}

	lastSweep  time.Time
	forceSweep bool
	appeared   bool
}

// NewScheduler creates a scheduler. A nil now uses time.Now.
func NewScheduler(gen classify.Generation, cadence Cadence, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		gen:     gen,
		cadence: cadence,
		now:     now,
		known:   make(map[model.Handle]*TargetWindow),
		active:  make(map[model.Handle]struct{}),
	}
}

// Observe reconciles the known windows with the current enumeration. New
// windows start in NEW; windows no longer enumerated are removed along
// with their active flag.
func (s *Scheduler) Observe(windows []model.Window) (added []model.Window, removed []model.Handle) {
	seen := make(map[model.Handle]bool, len(windows))
	for _, w := range windows {
		seen[w.Handle] = true
		if tw, ok := s.known[w.Handle]; ok {
			tw.Title = w.Title
			continue
		}
		s.known[w.Handle] = &TargetWindow{Handle: w.Handle, Title: w.Title, State: StateNew}
		added = append(added, w)
	}
	for h := range s.known {
		if !seen[h] {
			removed = append(removed, h)
			delete(s.known, h)
			delete(s.active, h)
		}
	}
	s.order = lo.Map(windows, func(w model.Window, _ int) model.Handle { return w.Handle })
	if len(added) > 0 {
		s.appeared = true
	}
	return added, removed
}

// Plan returns the scan decision for each window in the last observed
// enumeration, in enumeration order.
func (s *Scheduler) Plan() []Step {
	steps := make([]Step, 0, len(s.order))

	if s.gen == classify.Gen1 {
		for _, h := range s.order {
			tw := s.known[h]
			steps = append(steps, Step{Window: s.window(tw), State: tw.State, Depth: s.cadence.DeepDepth})
		}
		return steps
	}

	now := s.now()
	sweep := s.forceSweep || s.appeared || s.lastSweep.IsZero() || now.Sub(s.lastSweep) >= s.cadence.SweepInterval
	if sweep {
		s.lastSweep = now
	}
	s.forceSweep = false
	s.appeared = false

	for _, h := range s.order {
		tw := s.known[h]
		step := Step{Window: s.window(tw), State: tw.State}
		switch tw.State {
		case StateActive:
			step.Depth = s.cadence.DeepDepth
		case StateNew:
			step.Depth = s.cadence.ShallowDepth
		default:
			if sweep {
				step.Depth = s.cadence.ShallowDepth
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func (s *Scheduler) window(tw *TargetWindow) model.Window {
	return model.Window{Handle: tw.Handle, Title: tw.Title}
}

// Record stores a scan result. A click makes the window ACTIVE for good; a
// scanned NEW window becomes SHALLOW.
func (s *Scheduler) Record(h model.Handle, result ScanResult) {
	tw, ok := s.known[h]
	if !ok {
		return
	}
	tw.LastResult = result
	if result.Status != StatusWaiting {
		tw.LastScan = s.now()
	}
	switch {
	case result.Status == StatusClicked:
		tw.State = StateActive
		s.active[h] = struct{}{}
	case tw.State == StateNew && result.Status != StatusWaiting:
		tw.State = StateShallow
	}
}

// RequestSweep makes the next Plan scan every window.
func (s *Scheduler) RequestSweep() {
	s.forceSweep = true
}

// Reset demotes every ACTIVE window to NEW and returns how many were
// demoted.
func (s *Scheduler) Reset() int {
	n := len(s.active)
	for h := range s.active {
		if tw, ok := s.known[h]; ok {
			tw.State = StateNew
		}
	}
	clear(s.active)
	return n
}

// Interval returns how long the loop sleeps after a cycle.
func (s *Scheduler) Interval() time.Duration {
	if s.gen == classify.Gen1 {
		return s.cadence.FixedInterval
	}
	if len(s.active) > 0 {
		return s.cadence.ActiveInterval
	}
	return s.cadence.IdleInterval
}

// ActiveCount returns the size of the active window set.
func (s *Scheduler) ActiveCount() int {
	return len(s.active)
}

// IsActive reports whether h has yielded a click.
func (s *Scheduler) IsActive(h model.Handle) bool {
	_, ok := s.active[h]
	return ok
}

// Windows returns copies of the known windows in enumeration order.
func (s *Scheduler) Windows() []TargetWindow {
	return lo.FilterMap(s.order, func(h model.Handle, _ int) (TargetWindow, bool) {
		tw, ok := s.known[h]
		if !ok {
			return TargetWindow{}, false
		}
		return *tw, true
	})
}
