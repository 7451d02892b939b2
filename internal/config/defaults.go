package config

import "time"

func applyDefaults(cfg *Config) {
	// Target defaults
	if cfg.Target.Process == "" {
		cfg.Target.Process = "code"
	}
	if cfg.Target.TitleMarker == "" {
		cfg.Target.TitleMarker = "Visual Studio Code"
	}
	if cfg.Target.ExcludedMarkers == nil {
		cfg.Target.ExcludedMarkers = []string{"Extension Development Host"}
	}

	// Scan defaults
	if cfg.Scan.ShallowDepth == 0 {
		cfg.Scan.ShallowDepth = 8
	}
	if cfg.Scan.DeepDepth == 0 {
		cfg.Scan.DeepDepth = 30
	}
	if cfg.Scan.SweepInterval == 0 {
		cfg.Scan.SweepInterval = 3 * time.Second
	}
	if cfg.Scan.ActiveInterval == 0 {
		cfg.Scan.ActiveInterval = 300 * time.Millisecond
	}
	if cfg.Scan.IdleInterval == 0 {
		cfg.Scan.IdleInterval = time.Second
	}
	if cfg.Scan.FixedInterval == 0 {
		cfg.Scan.FixedInterval = 500 * time.Millisecond
	}
	if cfg.Scan.ErrorBackoff == 0 {
		cfg.Scan.ErrorBackoff = time.Second
	}
	if len(cfg.Scan.Methods) == 0 {
		cfg.Scan.Methods = []string{"invoke", "click_input", "click"}
	}

	// Connection defaults
	if cfg.Connection.FailureThreshold == 0 {
		cfg.Connection.FailureThreshold = 5
	}
	if cfg.Connection.Cooldown == 0 {
		cfg.Connection.Cooldown = 15 * time.Second
	}

	if cfg.Classifier.Generation == 0 {
		cfg.Classifier.Generation = 2
	}

	if cfg.Dump.Depth == 0 {
		cfg.Dump.Depth = 15
	}
	if cfg.Dump.TopTypes == 0 {
		cfg.Dump.TopTypes = 20
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Buffer == 0 {
		cfg.Log.Buffer = 500
	}

	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8765
	}
}
