// Package types holds configuration types for console.yaml.
package types

import (
	"fmt"
	"net/url"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ParseConsoleConfig.
const (
	DefaultRegisterPlugin    = "register"
	DefaultPasswordMinLength = 8
	DefaultDebounceMS        = 1000
	DefaultTimeoutSecs       = 30
	DefaultTheme             = "auto"
)

// ConsoleConfig represents the top-level console.yaml configuration.
type ConsoleConfig struct {
	APIURL            string         `yaml:"api_url"`
	RegisterPlugin    string         `yaml:"register_plugin,omitempty"`
	CallbackURL       string         `yaml:"callback_url,omitempty"`
	ProfileURL        string         `yaml:"profile_url,omitempty"`
	RegisterComplete  []CompleteLink `yaml:"register_complete,omitempty"`
	PasswordMinLength int            `yaml:"password_min_length,omitempty"`
	Language          string         `yaml:"language,omitempty"`
	Theme             string         `yaml:"theme,omitempty"` // auto, dark, light
	DebounceMS        int            `yaml:"debounce_ms,omitempty"`
	TimeoutSecs       int            `yaml:"timeout_secs,omitempty"`
	Token             string         `yaml:"token,omitempty"`
	LogFile           string         `yaml:"log_file,omitempty"`
	SchemasDir        string         `yaml:"schemas_dir,omitempty"`
}

// CompleteLink is a destination offered once a registration completes.
// Label is a translation key or plain text.
type CompleteLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// ParseConsoleConfig parses raw YAML bytes into a ConsoleConfig, applies
// defaults and validates it.
func ParseConsoleConfig(data []byte) (*ConsoleConfig, error) {
	cfg, err := DecodeConsoleConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeConsoleConfig parses raw YAML bytes without defaults or validation,
// for callers that overlay other sources first.
func DecodeConsoleConfig(data []byte) (*ConsoleConfig, error) {
	var cfg ConsoleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing console config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *ConsoleConfig) ApplyDefaults() {
	if c.RegisterPlugin == "" {
		c.RegisterPlugin = DefaultRegisterPlugin
	}
	if c.PasswordMinLength == 0 {
		c.PasswordMinLength = DefaultPasswordMinLength
	}
	if c.DebounceMS == 0 {
		c.DebounceMS = DefaultDebounceMS
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
}

// Validate checks required fields and value ranges.
func (c *ConsoleConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("console config: api_url is required")
	}
	if err := checkURL("api_url", c.APIURL); err != nil {
		return err
	}
	for _, u := range []struct{ key, val string }{
		{"callback_url", c.CallbackURL},
		{"profile_url", c.ProfileURL},
	} {
		if u.val == "" {
			continue
		}
		if err := checkURL(u.key, u.val); err != nil {
			return err
		}
	}
	for i, l := range c.RegisterComplete {
		if err := checkURL(fmt.Sprintf("register_complete[%d].url", i), l.URL); err != nil {
			return err
		}
	}
	if c.PasswordMinLength < 1 {
		return fmt.Errorf("console config: password_min_length must be positive, got %d", c.PasswordMinLength)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("console config: debounce_ms must not be negative, got %d", c.DebounceMS)
	}
	if c.TimeoutSecs < 0 {
		return fmt.Errorf("console config: timeout_secs must not be negative, got %d", c.TimeoutSecs)
	}
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("console config: theme must be auto, dark or light, got %q", c.Theme)
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("console config: %s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
