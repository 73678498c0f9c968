package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultsApplyOnDecode(t *testing.T) {
	data := []byte(`
tags: ["web", "code"]
`)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.applyDefaults()
	if cfg.LogLevel != "info" {
		t.Fatalf("logLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.BorderWidth != 1 {
		t.Fatalf("borderWidth = %d, want 1", cfg.BorderWidth)
	}
	if !cfg.HonorHints {
		t.Fatal("honorHints should default to true")
	}
	if !cfg.Metrics {
		t.Fatal("metrics should default to true")
	}
	if len(cfg.Tags) != 2 {
		t.Fatalf("tags = %v", cfg.Tags)
	}
}

func TestMetricsCanBeDisabled(t *testing.T) {
	data := []byte(`
metrics: false
`)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Metrics {
		t.Fatal("explicit metrics: false was overridden")
	}
}

func TestLegacyBorderFieldStillDecodes(t *testing.T) {
	data := []byte(`
borderPx: 3
`)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.BorderWidth != 3 {
		t.Fatalf("borderWidth = %d, want 3 from borderPx", cfg.BorderWidth)
	}
}

func TestExplicitHonorHintsFalseSurvives(t *testing.T) {
	data := []byte(`
honorHints: false
`)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.HonorHints {
		t.Fatal("explicit honorHints: false was overridden")
	}
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"negative border", func(c *Config) { c.BorderWidth = -1 }},
		{"duplicate tag", func(c *Config) { c.Tags = []string{"a", "a"} }},
		{"empty tag", func(c *Config) { c.Tags = []string{""} }},
		{"empty rule class", func(c *Config) { c.Rules = []RuleConfig{{}} }},
		{"unknown kind", func(c *Config) {
			c.Rules = []RuleConfig{{Class: "mpv", Kind: "billboard"}}
		}},
		{"unknown rule tag", func(c *Config) {
			c.Rules = []RuleConfig{{Class: "mpv", Tags: []string{"nowhere"}}}
		}},
		{"duplicate rule class", func(c *Config) {
			c.Rules = []RuleConfig{{Class: "mpv"}, {Class: "mpv"}}
		}},
		{"titlebar without height", func(c *Config) {
			c.TitleBar = TitleBar{Enabled: true, Height: 0}
		}},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: validation passed", tc.name)
		}
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loftwm.yaml")
	doc := []byte(`
logLevel: debug
borderWidth: 2
tags: ["term", "web"]
neverManage: ["xscreensaver"]
rules:
  - class: firefox
    tags: ["web"]
    kind: normal
  - class: mpv
    honorHints: false
    ontop: true
`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.BorderWidth != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.ShouldManage("firefox") || cfg.ShouldManage("xscreensaver") {
		t.Fatal("neverManage filter wrong")
	}
	rule := cfg.RuleFor("mpv")
	if rule == nil || rule.HonorHints == nil || *rule.HonorHints || !rule.OnTop {
		t.Fatalf("mpv rule = %+v", rule)
	}
	if cfg.RuleFor("unknown") != nil {
		t.Fatal("rule invented for unknown class")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("load of missing file succeeded")
	}
}
