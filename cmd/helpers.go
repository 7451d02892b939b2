package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mj1618/autoallow/internal/classify"
	"github.com/mj1618/autoallow/internal/config"
	"github.com/mj1618/autoallow/internal/logging"
	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
	"github.com/mj1618/autoallow/internal/platform/fake"
	"github.com/mj1618/autoallow/internal/scan"
)

// targetFilter builds the editor window filter from the config.
func targetFilter(cfg *config.Config) scan.TargetFilter {
	return scan.TargetFilter{
		Process:         cfg.Target.Process,
		TitleMarker:     cfg.Target.TitleMarker,
		ExcludedMarkers: cfg.Target.ExcludedMarkers,
	}
}

// classifierPolicy starts from the generation's policy and applies the
// config overrides.
func classifierPolicy(cfg *config.Config) (classify.Policy, error) {
	gen, err := classify.ParseGeneration(cfg.Classifier.Generation)
	if err != nil {
		return classify.Policy{}, err
	}
	p := classify.ForGeneration(gen)
	if len(cfg.Classifier.Keywords) > 0 {
		p.Keywords = lowerAll(cfg.Classifier.Keywords)
	}
	if len(cfg.Classifier.ExtraExclusions) > 0 {
		p.Exclusions = lo.Uniq(append(p.Exclusions, lowerAll(cfg.Classifier.ExtraExclusions)...))
	}
	if cfg.Classifier.ClickHidden != nil {
		p.ClickHidden = *cfg.Classifier.ClickHidden
	}
	return p, nil
}

func lowerAll(words []string) []string {
	return lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, w != ""
	})
}

// scanOptions converts the config into monitor options.
func scanOptions(cfg *config.Config) (scan.Options, error) {
	policy, err := classifierPolicy(cfg)
	if err != nil {
		return scan.Options{}, err
	}
	methods := make([]platform.Method, 0, len(cfg.Scan.Methods))
	for _, s := range cfg.Scan.Methods {
		m, err := platform.ParseMethod(s)
		if err != nil {
			return scan.Options{}, err
		}
		methods = append(methods, m)
	}
	return scan.Options{
		Filter: targetFilter(cfg),
		Policy: policy,
		Cadence: scan.Cadence{
			ShallowDepth:   cfg.Scan.ShallowDepth,
			DeepDepth:      cfg.Scan.DeepDepth,
			SweepInterval:  cfg.Scan.SweepInterval,
			ActiveInterval: cfg.Scan.ActiveInterval,
			IdleInterval:   cfg.Scan.IdleInterval,
			FixedInterval:  cfg.Scan.FixedInterval,
		},
		FailureThreshold: cfg.Connection.FailureThreshold,
		Cooldown:         cfg.Connection.Cooldown,
		ErrorBackoff:     cfg.Scan.ErrorBackoff,
		Methods:          lo.Uniq(methods),
	}, nil
}

// newConsoleLogger logs to w with the configured level.
func newConsoleLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return slog.New(logging.NewConsoleHandler(w, level)), nil
}

// openProvider returns the platform backends, or the demo desktop when
// demo is set.
func openProvider(demo bool) (*platform.Provider, *fake.Demo, error) {
	if demo {
		d := fake.NewDemo()
		return d.Provider(), d, nil
	}
	p, err := platform.NewProvider()
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}

// withAccessibility runs fn on a locked OS thread prepared for tree reads.
func withAccessibility(p *platform.Provider, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	end, err := p.Connector.Begin()
	if err != nil {
		return fmt.Errorf("prepare accessibility: %w", err)
	}
	defer end()
	return fn()
}

// resolveTargets lists the editor windows, optionally narrowed to one
// handle given as decimal or 0x-hex.
func resolveTargets(p *platform.Provider, filter scan.TargetFilter, handle string) ([]model.Window, error) {
	windows, err := p.Enumerator.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	targets := filter.Filter(windows)
	if handle == "" {
		return targets, nil
	}
	h, err := model.ParseHandle(handle)
	if err != nil {
		return nil, err
	}
	if w, ok := lo.Find(targets, func(w model.Window) bool { return w.Handle == h }); ok {
		return []model.Window{w}, nil
	}
	return nil, fmt.Errorf("window %s is not a monitored editor window", h)
}

// stderrLogger is the logger of the one-shot commands.
func stderrLogger() *slog.Logger {
	log, err := newConsoleLogger(os.Stderr, appConfig)
	if err != nil {
		return slog.New(logging.NewConsoleHandler(os.Stderr, slog.LevelInfo))
	}
	return log
}

// sleepCtx waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
