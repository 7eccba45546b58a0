package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/initializ/glewlwyd-console/types"
)

// EnvPrefix prefixes every console environment variable.
const EnvPrefix = "GLEWLWYD_CONSOLE_"

// ReadDotEnv reads the console variables of a .env file. Lines may carry
// an export prefix, a quoted value or a trailing # comment. Variables
// without the GLEWLWYD_CONSOLE_ prefix belong to other tools and are
// skipped.
func ReadDotEnv(r io.Reader) (map[string]string, error) {
	env := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, raw, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: expected KEY=value", n)
		}
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		val, err := dotEnvValue(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", n, key, err)
		}
		env[key] = val
	}
	return env, scanner.Err()
}

func dotEnvValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if q := raw[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(raw[1:], q)
		if end < 0 {
			return "", fmt.Errorf("unterminated quote")
		}
		return raw[1 : end+1], nil
	}
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw), nil
}

// ApplyEnv overlays GLEWLWYD_CONSOLE_* variables onto cfg. Empty values are
// ignored.
func ApplyEnv(cfg *types.ConsoleConfig, env map[string]string) error {
	strs := map[string]*string{
		"API_URL":         &cfg.APIURL,
		"REGISTER_PLUGIN": &cfg.RegisterPlugin,
		"CALLBACK_URL":    &cfg.CallbackURL,
		"PROFILE_URL":     &cfg.ProfileURL,
		"LANGUAGE":        &cfg.Language,
		"THEME":           &cfg.Theme,
		"TOKEN":           &cfg.Token,
		"LOG_FILE":        &cfg.LogFile,
		"SCHEMAS_DIR":     &cfg.SchemasDir,
	}
	for name, dst := range strs {
		if v := env[EnvPrefix+name]; v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PASSWORD_MIN_LENGTH": &cfg.PasswordMinLength,
		"DEBOUNCE_MS":         &cfg.DebounceMS,
		"TIMEOUT_SECS":        &cfg.TimeoutSecs,
	}
	for name, dst := range ints {
		v := env[EnvPrefix+name]
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %q is not a number", EnvPrefix, name, v)
		}
		*dst = n
	}
	return nil
}
