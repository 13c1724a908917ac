package config

import (
	"testing"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.DefaultStyle != "protected" {
		t.Errorf("DefaultStyle = %q, want protected", cfg.Pipeline.DefaultStyle)
	}
	if cfg.Pipeline.Thresholds.DigitLength != 8 {
		t.Errorf("DigitLength = %d, want 8", cfg.Pipeline.Thresholds.DigitLength)
	}
	if cfg.Pipeline.Thresholds.MinNoteLength != 20 {
		t.Errorf("MinNoteLength = %d, want 20", cfg.Pipeline.Thresholds.MinNoteLength)
	}
	if cfg.Cache.Enabled || cfg.Storage.Enabled {
		t.Error("Cache and storage should default to disabled")
	}
	if !cfg.Events.Enabled || cfg.Events.Path != "/ws" {
		t.Errorf("Events defaults wrong: %+v", cfg.Events)
	}
	if cfg.Batch.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500", cfg.Batch.BatchSize)
	}

	if err := validateConfig(cfg); err != nil {
		t.Errorf("Defaults fail validation: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"InvalidPort", func(c *Config) { c.Server.Port = 0 }},
		{"PortTooLarge", func(c *Config) { c.Server.Port = 70000 }},
		{"UnknownStyle", func(c *Config) { c.Pipeline.DefaultStyle = "shiny" }},
		{"ZeroDigitLength", func(c *Config) { c.Pipeline.Thresholds.DigitLength = 0 }},
		{"UnnamedCustomPattern", func(c *Config) {
			c.Pipeline.CustomPatterns = []CustomPattern{{Pattern: `\d+`}}
		}},
		{"BrokenCustomPattern", func(c *Config) {
			c.Pipeline.CustomPatterns = []CustomPattern{{Name: "bad", Pattern: `([`}}
		}},
		{"UnknownLogLevel", func(c *Config) { c.Logging.Level = "verbose" }},
		{"UnknownLogFormat", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateConfigAllStyles(t *testing.T) {
	for _, style := range []string{"protected", "masked", "hidden", "removed", "angle"} {
		cfg := GetDefaults()
		cfg.Pipeline.DefaultStyle = style
		if err := validateConfig(cfg); err != nil {
			t.Errorf("Style %q rejected: %v", style, err)
		}
	}
}
