package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadDotEnv(t *testing.T) {
	input := `
# comment
export GLEWLWYD_CONSOLE_TOKEN="abc # def"
GLEWLWYD_CONSOLE_LANGUAGE='fr'
GLEWLWYD_CONSOLE_THEME = dark # the default is auto
OTHER_TOOL=ignored
`
	env, err := ReadDotEnv(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDotEnv: %v", err)
	}
	want := map[string]string{
		"GLEWLWYD_CONSOLE_TOKEN":    "abc # def",
		"GLEWLWYD_CONSOLE_LANGUAGE": "fr",
		"GLEWLWYD_CONSOLE_THEME":    "dark",
	}
	if len(env) != len(want) {
		t.Fatalf("env = %v, want %v", env, want)
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%s] = %q, want %q", k, env[k], v)
		}
	}
}

func TestReadDotEnv_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not a pair", "GLEWLWYD_CONSOLE_THEME=dark\nnot a pair\n", "line 2"},
		{"missing key", "=value\n", "line 1"},
		{"unterminated quote", "GLEWLWYD_CONSOLE_TOKEN=\"abc\n", "unterminated quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDotEnv(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadDotEnv() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadConsoleConfig(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "console.yaml", "api_url: http://localhost:4593/api\nlanguage: en\n")

	cfg, err := LoadConsoleConfig(p)
	if err != nil {
		t.Fatalf("LoadConsoleConfig: %v", err)
	}
	if cfg.APIURL != "http://localhost:4593/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}

	if _, err := LoadConsoleConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve_Precedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "console.yaml", "api_url: http://yaml/api\nlanguage: en\ntheme: light\ndebounce_ms: 500\n")
	envPath := writeFile(t, dir, ".env", "GLEWLWYD_CONSOLE_LANGUAGE=fr\nGLEWLWYD_CONSOLE_DEBOUNCE_MS=200\n")

	cfg, err := Resolve(ResolveOptions{
		Path:       yamlPath,
		DotEnvPath: envPath,
		Environ: []string{
			"GLEWLWYD_CONSOLE_DEBOUNCE_MS=100",
			"GLEWLWYD_CONSOLE_TOKEN=tok",
			"HOME=/root",
		},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.APIURL != "http://yaml/api" {
		t.Errorf("APIURL = %q, want yaml value", cfg.APIURL)
	}
	if cfg.Language != "fr" {
		t.Errorf("Language = %q, want .env value %q", cfg.Language, "fr")
	}
	if cfg.DebounceMS != 100 {
		t.Errorf("DebounceMS = %d, want environment value 100", cfg.DebounceMS)
	}
	if cfg.Token != "tok" {
		t.Errorf("Token = %q, want %q", cfg.Token, "tok")
	}
	if cfg.Theme != "light" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "light")
	}
}

func TestResolve_MissingFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "console.yaml")

	cfg, err := Resolve(ResolveOptions{
		Path:    missing,
		Environ: []string{"GLEWLWYD_CONSOLE_API_URL=http://env/api"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.APIURL != "http://env/api" || cfg.RegisterPlugin != "register" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Resolve(ResolveOptions{Path: missing, Required: true}); err == nil {
		t.Error("expected error for required missing file")
	}
	if _, err := Resolve(ResolveOptions{Path: missing}); err == nil {
		t.Error("expected validation error without api_url")
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	_, err := Resolve(ResolveOptions{
		Path:    filepath.Join(t.TempDir(), "none.yaml"),
		Environ: []string{"GLEWLWYD_CONSOLE_API_URL=http://env/api", "GLEWLWYD_CONSOLE_TIMEOUT_SECS=soon"},
	})
	if err == nil || !strings.Contains(err.Error(), "TIMEOUT_SECS") {
		t.Errorf("error = %v, want TIMEOUT_SECS parse error", err)
	}
}
