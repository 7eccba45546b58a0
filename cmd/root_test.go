package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/initializ/glewlwyd-console/registration"
)

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123")
	defer SetVersionInfo("dev", "none")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := out.String(), "glewlwyd-console 1.2.3 (commit: abc123)\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestLoadConfig_APIURLFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	if err := os.WriteFile(path, []byte("api_url: http://yaml.example.com/api\nlanguage: fr\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldCfg, oldURL := cfgFile, apiURL
	defer func() { cfgFile, apiURL = oldCfg, oldURL }()
	cfgFile = path

	cfg, err := loadConfig(registerCmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != "http://yaml.example.com/api" || cfg.Language != "fr" {
		t.Errorf("cfg = %+v", cfg)
	}

	apiURL = "http://flag.example.com/api"
	cfg, err = loadConfig(registerCmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != apiURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, apiURL)
	}
}

func TestNewApp_LogsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	logPath := filepath.Join(dir, "console.log")
	content := "api_url: http://127.0.0.1:1/api\nlog_file: " + logPath + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	oldCfg := cfgFile
	defer func() { cfgFile = oldCfg }()
	cfgFile = path

	a, err := newApp(registerCmd, true)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	a.log.Info("started", nil)
	a.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"command":"glewlwyd-console register"`) {
		t.Errorf("log = %s, want the command path", data)
	}
}

func TestMockOptions(t *testing.T) {
	cmd := newMockServerCmd()

	if err := cmd.Flags().Parse([]string{
		"--taken", "alice,bob",
		"--set-password", "optional",
		"--verify-email",
		"--schemes", "otp",
	}); err != nil {
		t.Fatal(err)
	}
	opts, err := mockOptions(cmd)
	if err != nil {
		t.Fatalf("mockOptions: %v", err)
	}
	if len(opts.Taken) != 2 || opts.Config.SetPassword != registration.RequirementOptional || !opts.Config.VerifyEmail {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.Config.Schemes) != 1 || opts.Config.Schemes[0].Register != registration.RequirementAlways {
		t.Errorf("Schemes = %+v", opts.Config.Schemes)
	}
	if len(opts.Types) == 0 {
		t.Error("no module types served")
	}

	if err := cmd.Flags().Set("set-password", "sometimes"); err != nil {
		t.Fatal(err)
	}
	if _, err := mockOptions(cmd); err == nil || !strings.Contains(err.Error(), "--set-password") {
		t.Errorf("error = %v, want --set-password error", err)
	}
}
