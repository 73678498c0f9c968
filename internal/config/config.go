package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	LogLevel    string       `yaml:"logLevel"`
	BorderWidth int          `yaml:"borderWidth"`
	HonorHints  bool         `yaml:"honorHints"`
	Metrics     bool         `yaml:"metrics"`
	TitleBar    TitleBar     `yaml:"titleBar"`
	Tags        []string     `yaml:"tags"`
	NeverManage []string     `yaml:"neverManage"`
	Rules       []RuleConfig `yaml:"rules"`
	Sockets     Sockets      `yaml:"sockets"`
}

// UnmarshalYAML handles deprecated fields while decoding configuration files.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		LogLevel       string       `yaml:"logLevel"`
		BorderWidth    *int         `yaml:"borderWidth"`
		LegacyBorderPx *int         `yaml:"borderPx"`
		HonorHints     *bool        `yaml:"honorHints"`
		Metrics        *bool        `yaml:"metrics"`
		TitleBar       TitleBar     `yaml:"titleBar"`
		Tags           []string     `yaml:"tags"`
		NeverManage    []string     `yaml:"neverManage"`
		Rules          []RuleConfig `yaml:"rules"`
		Sockets        Sockets      `yaml:"sockets"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.LogLevel = raw.LogLevel
	c.TitleBar = raw.TitleBar
	c.Tags = raw.Tags
	c.NeverManage = raw.NeverManage
	c.Rules = raw.Rules
	c.Sockets = raw.Sockets

	switch {
	case raw.BorderWidth != nil:
		c.BorderWidth = *raw.BorderWidth
	case raw.LegacyBorderPx != nil:
		c.BorderWidth = *raw.LegacyBorderPx
	default:
		c.BorderWidth = 1
	}

	if raw.HonorHints != nil {
		c.HonorHints = *raw.HonorHints
	} else {
		c.HonorHints = true
	}

	if raw.Metrics != nil {
		c.Metrics = *raw.Metrics
	} else {
		c.Metrics = true
	}

	return nil
}

// TitleBar configures the optional title chrome drawn above each client.
type TitleBar struct {
	Enabled bool `yaml:"enabled"`
	Height  int  `yaml:"height"`
}

// Sockets overrides the daemon's socket paths. Empty fields fall back to
// the runtime-directory defaults.
type Sockets struct {
	Command string `yaml:"command"`
	Event   string `yaml:"event"`
	Control string `yaml:"control"`
}

// RuleConfig applies per-class overrides when a client is managed.
type RuleConfig struct {
	Class       string   `yaml:"class"`
	Tags        []string `yaml:"tags"`
	Kind        string   `yaml:"kind"`
	BorderWidth *int     `yaml:"borderWidth"`
	HonorHints  *bool    `yaml:"honorHints"`
	Sticky      bool     `yaml:"sticky"`
	OnTop       bool     `yaml:"ontop"`
}

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var windowKinds = map[string]struct{}{
	"normal":       {},
	"desktop":      {},
	"dock":         {},
	"splash":       {},
	"dialog":       {},
	"utility":      {},
	"menu":         {},
	"notification": {},
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		BorderWidth: 1,
		HonorHints:  true,
		Metrics:     true,
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.Tags) == 0 {
		c.Tags = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
	}
	if c.TitleBar.Enabled && c.TitleBar.Height == 0 {
		c.TitleBar.Height = 18
	}
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.BorderWidth < 0 {
		return fmt.Errorf("borderWidth cannot be negative")
	}
	if c.TitleBar.Enabled && c.TitleBar.Height <= 0 {
		return fmt.Errorf("titleBar.height must be positive")
	}
	tagNames := map[string]struct{}{}
	for _, name := range c.Tags {
		if name == "" {
			return fmt.Errorf("tag name cannot be empty")
		}
		if _, exists := tagNames[name]; exists {
			return fmt.Errorf("duplicate tag %q", name)
		}
		tagNames[name] = struct{}{}
	}
	seenClasses := map[string]struct{}{}
	for _, rule := range c.Rules {
		if rule.Class == "" {
			return fmt.Errorf("rule class cannot be empty")
		}
		if _, exists := seenClasses[rule.Class]; exists {
			return fmt.Errorf("duplicate rule for class %q", rule.Class)
		}
		seenClasses[rule.Class] = struct{}{}
		if rule.Kind != "" {
			if _, ok := windowKinds[rule.Kind]; !ok {
				return fmt.Errorf("rule %q: unknown window kind %q", rule.Class, rule.Kind)
			}
		}
		if rule.BorderWidth != nil && *rule.BorderWidth < 0 {
			return fmt.Errorf("rule %q: borderWidth cannot be negative", rule.Class)
		}
		for _, tag := range rule.Tags {
			if _, ok := tagNames[tag]; !ok {
				return fmt.Errorf("rule %q: unknown tag %q", rule.Class, tag)
			}
		}
	}
	return nil
}

// RuleFor returns the override rule matching the class, or nil.
func (c *Config) RuleFor(class string) *RuleConfig {
	for i := range c.Rules {
		if c.Rules[i].Class == class {
			return &c.Rules[i]
		}
	}
	return nil
}

// ShouldManage reports whether a client of the class enters management at
// all.
func (c *Config) ShouldManage(class string) bool {
	for _, never := range c.NeverManage {
		if never == class {
			return false
		}
	}
	return true
}
