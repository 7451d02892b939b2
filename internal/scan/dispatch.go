package scan

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mj1618/autoallow/internal/platform"
)

// ErrAllStrategiesFailed is returned when no activation strategy worked.
var ErrAllStrategiesFailed = errors.New("all activation strategies failed")

// Dispatcher activates matched controls.
type Dispatcher struct {
	methods []platform.Method
	clicks  int
	log     *slog.Logger
}

// NewDispatcher creates a dispatcher trying methods in order. An empty
// list uses platform.DefaultMethods.
func NewDispatcher(methods []platform.Method, log *slog.Logger) *Dispatcher {
	if len(methods) == 0 {
		methods = platform.DefaultMethods
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{methods: methods, log: log}
}

// Activate tries each strategy until one succeeds, counts the click and
// returns the method used.
func (d *Dispatcher) Activate(c platform.Control) (platform.Method, error) {
	var errs []error
	for _, m := range d.methods {
		if err := m.Run(c); err != nil {
			d.log.Debug("activation strategy failed", "method", string(m), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", m, err))
			continue
		}
		d.clicks++
		return m, nil
	}
	return "", fmt.Errorf("%w: %w", ErrAllStrategiesFailed, errors.Join(errs...))
}

// Clicks returns the number of successful activations.
func (d *Dispatcher) Clicks() int {
	return d.clicks
}
