package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(cfg.Target.ExcludedMarkers) != 2 {
		t.Errorf("len(target.excluded_markers) = %d, want 2", len(cfg.Target.ExcludedMarkers))
	}
	if cfg.Scan.ShallowDepth != 6 || cfg.Scan.DeepDepth != 25 {
		t.Errorf("scan depths = %d/%d, want 6/25", cfg.Scan.ShallowDepth, cfg.Scan.DeepDepth)
	}
	if cfg.Scan.ActiveInterval != 250*time.Millisecond {
		t.Errorf("scan.active_interval = %v, want 250ms", cfg.Scan.ActiveInterval)
	}
	if cfg.Scan.FixedInterval != 500*time.Millisecond {
		t.Errorf("scan.fixed_interval default = %v, want 500ms", cfg.Scan.FixedInterval)
	}
	if len(cfg.Scan.Methods) != 2 || cfg.Scan.Methods[1] != "click" {
		t.Errorf("scan.methods = %v", cfg.Scan.Methods)
	}
	if cfg.Connection.FailureThreshold != 3 || cfg.Connection.Cooldown != 20*time.Second {
		t.Errorf("connection = %+v", cfg.Connection)
	}
	if cfg.Classifier.Generation != 1 {
		t.Errorf("classifier.generation = %d, want 1", cfg.Classifier.Generation)
	}
	if cfg.Classifier.ClickHidden == nil || *cfg.Classifier.ClickHidden {
		t.Error("classifier.click_hidden should be explicitly false")
	}
	if cfg.Dump.Depth != 12 || cfg.Dump.TopTypes != 20 {
		t.Errorf("dump = %+v", cfg.Dump)
	}
	if cfg.Server.Transport != "streamable-http" || cfg.Server.Port != 9000 {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestParseEmptyAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target.Process != "code" || cfg.Target.TitleMarker != "Visual Studio Code" {
		t.Errorf("target defaults = %+v", cfg.Target)
	}
	if len(cfg.Target.ExcludedMarkers) != 1 {
		t.Errorf("excluded markers default = %v", cfg.Target.ExcludedMarkers)
	}
	if cfg.Scan.ShallowDepth != 8 || cfg.Scan.DeepDepth != 30 || cfg.Scan.SweepInterval != 3*time.Second {
		t.Errorf("scan defaults = %+v", cfg.Scan)
	}
	if cfg.Connection.FailureThreshold != 5 || cfg.Connection.Cooldown != 15*time.Second {
		t.Errorf("connection defaults = %+v", cfg.Connection)
	}
	if cfg.Classifier.Generation != 2 || cfg.Classifier.ClickHidden != nil {
		t.Errorf("classifier defaults = %+v", cfg.Classifier)
	}
	if cfg.Dump.Depth != 15 {
		t.Errorf("dump.depth default = %d", cfg.Dump.Depth)
	}
}

func TestParseExplicitEmptyExclusions(t *testing.T) {
	cfg, err := Parse([]byte("target:\n  excluded_markers: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Target.ExcludedMarkers) != 0 {
		t.Errorf("an explicit empty list should be kept, got %v", cfg.Target.ExcludedMarkers)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"exe suffix", "target:\n  process: code.exe\n", "target.process"},
		{"uppercase process", "target:\n  process: Code\n", "target.process"},
		{"deep below shallow", "scan:\n  shallow_depth: 10\n  deep_depth: 5\n", "scan.deep_depth"},
		{"negative interval", "scan:\n  idle_interval: -1s\n", "scan.idle_interval"},
		{"bad method", "scan:\n  methods: [press]\n", "scan.methods"},
		{"bad generation", "classifier:\n  generation: 3\n", "classifier.generation"},
		{"bad level", "log:\n  level: verbose\n", "log.level"},
		{"negative log buffer", "log:\n  buffer: -1\n", "log.buffer"},
		{"bad transport", "server:\n  transport: sse\n", "server.transport"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("scan: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "autoallow.yaml")

	cfg, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("implicit missing file should use defaults: %v", err)
	}
	if cfg.Classifier.Generation != 2 {
		t.Error("expected default config")
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Error("explicit missing file should fail")
	}

	if err := os.WriteFile(missing, []byte("dump:\n  depth: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOrDefault(missing, false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dump.Depth != 4 {
		t.Errorf("dump.depth = %d, want 4", cfg.Dump.Depth)
	}
}
