package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mj1618/autoallow/internal/classify"
	"github.com/mj1618/autoallow/internal/platform"
)

// Log rate limits, in cycles.
const (
	failureLogEvery = 50
	idleLogEvery    = 50
	noticeLogEvery  = 20
)

// Options configures a Monitor.
type Options struct {
	Filter           TargetFilter
	Policy           classify.Policy
	Cadence          Cadence
	FailureThreshold int
	Cooldown         time.Duration
	ErrorBackoff     time.Duration
	Methods          []platform.Method
	// AutoStart begins monitoring as soon as Run is called.
	AutoStart bool
	// Now overrides the clock.
	Now func() time.Time
}

// DefaultOptions returns the generation 2 defaults.
func DefaultOptions() Options {
	return Options{
		Filter:           DefaultTargetFilter(),
		Policy:           classify.Gen2Policy(),
		Cadence:          DefaultCadence(),
		FailureThreshold: 5,
		Cooldown:         15 * time.Second,
		ErrorBackoff:     time.Second,
		Methods:          platform.DefaultMethods,
	}
}

// Snapshot is a read-only view of the monitor state.
type Snapshot struct {
	Session   string          `yaml:"session"            json:"session"`
	Running   bool            `yaml:"running"            json:"running"`
	Scans     int             `yaml:"scans"              json:"scans"`
	Clicks    int             `yaml:"clicks"             json:"clicks"`
	Active    int             `yaml:"active"             json:"active"`
	Windows   []TargetWindow  `yaml:"windows"            json:"windows"`
	Failures  []FailureRecord `yaml:"failures,omitempty" json:"failures,omitempty"`
	UpdatedAt time.Time       `yaml:"updated_at"         json:"updated_at"`
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdScan
	cmdReset
)

type command struct {
	kind  commandKind
	reply chan int
}

// Monitor is the monitoring loop. All scan state is owned by the goroutine
// running Run; other goroutines interact through commands and snapshots.
type Monitor struct {
	opts       Options
	enum       platform.Enumerator
	conn       platform.Connector
	connector  *Connector
	failures   *FailureTracker
	classifier *classify.Classifier
	dispatcher *Dispatcher
	scheduler  *Scheduler
	log        *slog.Logger
	now        func() time.Time
	session    string

	running bool
	scans   int

	cmds   chan command
	done   chan struct{}
	snap   atomic.Pointer[Snapshot]
	notify chan struct{}
}

// NewMonitor creates a monitor over the provider's backends.
func NewMonitor(p *platform.Provider, opts Options, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	failures := NewFailureTracker(opts.FailureThreshold, opts.Cooldown, now)
	m := &Monitor{
		opts:       opts,
		enum:       p.Enumerator,
		conn:       p.Connector,
		connector:  NewConnector(p.Connector, failures),
		failures:   failures,
		classifier: classify.New(opts.Policy, log),
		dispatcher: NewDispatcher(opts.Methods, log),
		scheduler:  NewScheduler(opts.Policy.Generation, opts.Cadence, now),
		log:        log,
		now:        now,
		session:    uuid.NewString(),
		cmds:       make(chan command, 16),
		done:       make(chan struct{}),
		notify:     make(chan struct{}, 1),
	}
	m.publish()
	return m
}

// Run owns the loop until ctx is done. It locks its goroutine to an OS
// thread prepared for accessibility calls. Run must be called once.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.done)
	end, err := m.conn.Begin()
	if err != nil {
		return fmt.Errorf("prepare accessibility: %w", err)
	}
	defer end()

	var wake <-chan time.Time
	if m.opts.AutoStart {
		m.setRunning(true)
		wake = time.After(0)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-m.cmds:
			switch cmd.kind {
			case cmdStart:
				if !m.running {
					m.setRunning(true)
					wake = time.After(0)
				}
			case cmdStop:
				if m.running {
					m.setRunning(false)
					wake = nil
				}
			case cmdScan:
				m.scheduler.RequestSweep()
				m.log.Info("full scan requested")
				delay := m.Cycle(ctx)
				if m.running {
					wake = time.After(delay)
				}
			case cmdReset:
				cleared := m.failures.Reset()
				demoted := m.scheduler.Reset()
				m.log.Info("state reset", "failure_records", cleared, "demoted", demoted)
				m.publish()
				cmd.reply <- cleared
			}
		case <-wake:
			wake = nil
			delay := m.Cycle(ctx)
			if m.running {
				wake = time.After(delay)
			}
		}
	}
}

func (m *Monitor) setRunning(on bool) {
	m.running = on
	if on {
		m.log.Info("monitoring started", "generation", int(m.opts.Policy.Generation))
	} else {
		m.log.Info("monitoring stopped", "scans", m.scans, "clicks", m.dispatcher.Clicks())
	}
	m.publish()
}

// ErrMonitorStopped is returned by commands sent after Run has returned.
var ErrMonitorStopped = errors.New("monitor is not running")

// Start begins periodic scanning.
func (m *Monitor) Start(ctx context.Context) error { return m.send(ctx, command{kind: cmdStart}) }

// Stop ends periodic scanning after the current cycle.
func (m *Monitor) Stop(ctx context.Context) error { return m.send(ctx, command{kind: cmdStop}) }

// ScanNow runs a full sweep immediately.
func (m *Monitor) ScanNow(ctx context.Context) error { return m.send(ctx, command{kind: cmdScan}) }

// Reset clears failure records and demotes active windows. It returns the
// number of failure records cleared.
func (m *Monitor) Reset(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := m.send(ctx, command{kind: cmdReset, reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-m.done:
		return 0, ErrMonitorStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// send queues cmd for the loop. Commands queued before Run starts are
// applied once it does.
func (m *Monitor) send(ctx context.Context, cmd command) error {
	select {
	case <-m.done:
		return ErrMonitorStopped
	default:
	}
	select {
	case m.cmds <- cmd:
		return nil
	case <-m.done:
		return ErrMonitorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Snapshot returns the latest published state.
func (m *Monitor) Snapshot() Snapshot {
	return *m.snap.Load()
}

// Updates is signalled after every published change. Only the latest
// change is kept.
func (m *Monitor) Updates() <-chan struct{} {
	return m.notify
}

func (m *Monitor) publish() {
	s := &Snapshot{
		Session:   m.session,
		Running:   m.running,
		Scans:     m.scans,
		Clicks:    m.dispatcher.Clicks(),
		Active:    m.scheduler.ActiveCount(),
		Windows:   m.scheduler.Windows(),
		Failures:  m.failures.Records(),
		UpdatedAt: m.now(),
	}
	m.snap.Store(s)
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Cycle runs one enumerate, classify and click pass and returns the delay
// before the next one. No error aborts a cycle.
func (m *Monitor) Cycle(ctx context.Context) time.Duration {
	m.scans++
	defer m.publish()

	windows, err := m.enum.ListWindows()
	if err != nil {
		m.log.Error("window enumeration failed", "error", err)
		return m.opts.ErrorBackoff
	}
	targets := m.opts.Filter.Filter(windows)

	added, removed := m.scheduler.Observe(targets)
	for _, w := range added {
		m.log.Info("window found", "hwnd", w.Handle.String(), "title", w.Title)
	}
	for _, h := range removed {
		m.failures.Forget(h)
		if m.scans%noticeLogEvery == 0 {
			m.log.Debug("window closed", "hwnd", h.String())
		}
	}

	clicked := false
	for _, step := range m.scheduler.Plan() {
		if ctx.Err() != nil {
			break
		}
		if step.Depth == 0 {
			m.scheduler.Record(step.Window.Handle, ScanResult{Status: StatusWaiting})
			continue
		}
		result := m.scanWindow(step)
		m.scheduler.Record(step.Window.Handle, result)
		if result.Status == StatusClicked {
			clicked = true
		}
	}

	if !clicked && m.scans%idleLogEvery == 0 {
		m.log.Debug("scan complete, no Allow button", "windows", len(targets), "scan", m.scans)
	}
	return m.scheduler.Interval()
}

func (m *Monitor) scanWindow(step Step) ScanResult {
	h := step.Window.Handle
	log := m.log.With("hwnd", h.String())

	tree, err := m.connector.Connect(h)
	if err != nil {
		var cooldown *CooldownError
		switch {
		case errors.As(err, &cooldown):
			if m.scans%noticeLogEvery == 0 {
				log.Debug("window skipped", "retry_in", cooldown.Remaining.Round(time.Second).String())
			}
			return ScanResult{Status: StatusSkipped, Detail: cooldown.Error()}
		case !m.enum.IsAlive(h):
			m.failures.Forget(h)
			return ScanResult{Status: StatusGone, Detail: "window closed"}
		default:
			rec := m.failures.records[h]
			if m.scans%failureLogEvery == 0 || (rec != nil && rec.Count == m.failures.Threshold()) {
				log.Warn("connection failed", "failures", rec.Count, "error", err)
			}
			return ScanResult{Status: StatusError, Detail: err.Error()}
		}
	}
	defer tree.Close()

	match, ok := m.classifier.FindAllowControl(tree.Root(), step.Depth)
	if !ok {
		return ScanResult{Status: StatusNoMatch, Depth: step.Depth}
	}

	result := ScanResult{
		Matched:     true,
		ControlName: match.Info.Name,
		ControlType: match.Category,
		Depth:       step.Depth,
	}
	method, err := m.dispatcher.Activate(match.Control)
	if err != nil {
		log.Warn("click failed", "name", match.Info.Name, "type", match.Category, "error", err)
		result.Status = StatusClickFailed
		result.Detail = err.Error()
		return result
	}
	log.Info("clicked", "name", match.Info.Name, "type", match.Category, "method", string(method),
		"state", string(step.State), "clicks", m.dispatcher.Clicks())
	result.Status = StatusClicked
	result.Method = string(method)
	return result
}

// Describe formats a result for display.
func (r ScanResult) Describe() string {
	switch r.Status {
	case StatusClicked:
		return fmt.Sprintf("clicked %q (%s)", r.ControlName, r.Method)
	case StatusClickFailed:
		return fmt.Sprintf("click failed on %q", r.ControlName)
	case StatusNoMatch:
		return fmt.Sprintf("no match (depth %d)", r.Depth)
	case "":
		return "pending"
	default:
		return string(r.Status)
	}
}
