package scan

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// ErrConnection wraps failures to open a window's accessibility tree.
var ErrConnection = errors.New("connection failed")

// CooldownError is returned for a window skipped after repeated failures.
type CooldownError struct {
	Handle    model.Handle
	Failures  int
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("window %s skipped after %d failures, retry in %s", e.Handle, e.Failures, e.Remaining.Round(time.Second))
}

// FailureRecord counts consecutive connection failures of one window.
type FailureRecord struct {
	Handle      model.Handle `yaml:"hwnd"         json:"hwnd"`
	Count       int          `yaml:"count"        json:"count"`
	LastFailure time.Time    `yaml:"last_failure" json:"last_failure"`
}

// FailureTracker applies the threshold and cooldown to failing windows. It
// is owned by a single goroutine.
type FailureTracker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	records   map[model.Handle]*FailureRecord
}

// NewFailureTracker creates a tracker. A nil now uses time.Now.
func NewFailureTracker(threshold int, cooldown time.Duration, now func() time.Time) *FailureTracker {
	if now == nil {
		now = time.Now
	}
	return &FailureTracker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       now,
		records:   make(map[model.Handle]*FailureRecord),
	}
}

// Allow reports whether h may be attempted now. When the cooldown has
// expired the count is reset and the stamp refreshed.
func (t *FailureTracker) Allow(h model.Handle) (bool, time.Duration) {
	rec, ok := t.records[h]
	if !ok || rec.Count < t.threshold {
		return true, 0
	}
	now := t.now()
	elapsed := now.Sub(rec.LastFailure)
	if elapsed < t.cooldown {
		return false, t.cooldown - elapsed
	}
	rec.Count = 0
	rec.LastFailure = now
	return true, 0
}

// Failure records a failed attempt and returns the new count.
func (t *FailureTracker) Failure(h model.Handle) int {
	rec, ok := t.records[h]
	if !ok {
		rec = &FailureRecord{Handle: h}
		t.records[h] = rec
	}
	rec.Count++
	rec.LastFailure = t.now()
	return rec.Count
}

// Success clears the record of h.
func (t *FailureTracker) Success(h model.Handle) {
	delete(t.records, h)
}

// Forget drops the record of a closed window.
func (t *FailureTracker) Forget(h model.Handle) {
	delete(t.records, h)
}

// Reset clears every record and returns how many there were.
func (t *FailureTracker) Reset() int {
	n := len(t.records)
	clear(t.records)
	return n
}

// Records returns a copy of the records ordered by handle.
func (t *FailureTracker) Records() []FailureRecord {
	out := make([]FailureRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	slices.SortFunc(out, func(a, b FailureRecord) int {
		return cmp.Compare(a.Handle, b.Handle)
	})
	return out
}

// Threshold returns the failure count at which windows are skipped.
func (t *FailureTracker) Threshold() int {
	return t.threshold
}

// Connector opens a fresh tree per attempt and tracks failures.
type Connector struct {
	conn     platform.Connector
	failures *FailureTracker
}

// NewConnector wraps a platform connector.
func NewConnector(conn platform.Connector, failures *FailureTracker) *Connector {
	return &Connector{conn: conn, failures: failures}
}

// Connect returns a *CooldownError without attempting a connection while
// h is cooling down, or an error wrapping ErrConnection on failure.
func (c *Connector) Connect(h model.Handle) (platform.Tree, error) {
	if ok, remaining := c.failures.Allow(h); !ok {
		return nil, &CooldownError{Handle: h, Failures: c.failures.records[h].Count, Remaining: remaining}
	}
	tree, err := c.conn.Connect(h)
	if err != nil {
		c.failures.Failure(h)
		return nil, fmt.Errorf("%w: window %s: %w", ErrConnection, h, err)
	}
	c.failures.Success(h)
	return tree, nil
}
