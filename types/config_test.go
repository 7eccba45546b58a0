package types

import (
	"strings"
	"testing"
)

func TestParseConsoleConfig_Defaults(t *testing.T) {
	cfg, err := ParseConsoleConfig([]byte("api_url: http://localhost:4593/api\n"))
	if err != nil {
		t.Fatalf("ParseConsoleConfig: %v", err)
	}
	if cfg.RegisterPlugin != DefaultRegisterPlugin {
		t.Errorf("RegisterPlugin = %q, want %q", cfg.RegisterPlugin, DefaultRegisterPlugin)
	}
	if cfg.PasswordMinLength != 8 {
		t.Errorf("PasswordMinLength = %d, want 8", cfg.PasswordMinLength)
	}
	if cfg.DebounceMS != 1000 {
		t.Errorf("DebounceMS = %d, want 1000", cfg.DebounceMS)
	}
	if cfg.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want 30", cfg.TimeoutSecs)
	}
	if cfg.Theme != "auto" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "auto")
	}
}

func TestParseConsoleConfig_Full(t *testing.T) {
	data := `
api_url: https://idp.example.com/api
register_plugin: signup
callback_url: https://app.example.com/login
profile_url: https://idp.example.com/profile
register_complete:
  - label: docs
    url: https://docs.example.com
password_min_length: 12
language: fr
theme: light
debounce_ms: 250
timeout_secs: 5
log_file: /tmp/console.log
schemas_dir: ./schemas
`
	cfg, err := ParseConsoleConfig([]byte(data))
	if err != nil {
		t.Fatalf("ParseConsoleConfig: %v", err)
	}
	if cfg.RegisterPlugin != "signup" {
		t.Errorf("RegisterPlugin = %q, want %q", cfg.RegisterPlugin, "signup")
	}
	if len(cfg.RegisterComplete) != 1 || cfg.RegisterComplete[0].URL != "https://docs.example.com" {
		t.Errorf("RegisterComplete = %+v", cfg.RegisterComplete)
	}
	if cfg.PasswordMinLength != 12 || cfg.DebounceMS != 250 || cfg.TimeoutSecs != 5 {
		t.Errorf("numbers = %d/%d/%d, want 12/250/5", cfg.PasswordMinLength, cfg.DebounceMS, cfg.TimeoutSecs)
	}
	if cfg.Language != "fr" || cfg.Theme != "light" {
		t.Errorf("Language/Theme = %q/%q", cfg.Language, cfg.Theme)
	}
}

func TestParseConsoleConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing api_url", "language: en\n", "api_url is required"},
		{"relative api_url", "api_url: /api\n", "api_url must be an absolute URL"},
		{"bad callback", "api_url: http://x/api\ncallback_url: nope\n", "callback_url"},
		{"bad link", "api_url: http://x/api\nregister_complete:\n  - label: a\n    url: ''\n", "register_complete[0].url"},
		{"negative debounce", "api_url: http://x/api\ndebounce_ms: -5\n", "debounce_ms"},
		{"bad theme", "api_url: http://x/api\ntheme: neon\n", "theme"},
		{"bad yaml", "api_url: [\n", "parsing console config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConsoleConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}
