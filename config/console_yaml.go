package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/initializ/glewlwyd-console/types"
)

// LoadConsoleConfig reads and parses a console.yaml file from the given path.
func LoadConsoleConfig(path string) (*types.ConsoleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading console config %s: %w", path, err)
	}
	return types.ParseConsoleConfig(data)
}

// ResolveOptions selects the configuration sources for Resolve.
type ResolveOptions struct {
	// Path is the console.yaml location.
	Path string
	// Required makes a missing Path an error.
	Required bool
	// DotEnvPath is an optional .env file; a missing file is ignored.
	DotEnvPath string
	// Environ is the process environment in KEY=value form.
	Environ []string
}

// Resolve builds the console configuration from console.yaml, then the .env
// file, then the process environment, each overriding the previous one.
func Resolve(opts ResolveOptions) (*types.ConsoleConfig, error) {
	cfg := &types.ConsoleConfig{}
	data, err := os.ReadFile(opts.Path)
	switch {
	case err == nil:
		if cfg, err = types.DecodeConsoleConfig(data); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist) && !opts.Required:
	default:
		return nil, fmt.Errorf("reading console config %s: %w", opts.Path, err)
	}

	env := map[string]string{}
	if opts.DotEnvPath != "" {
		f, err := os.Open(opts.DotEnvPath)
		switch {
		case err == nil:
			env, err = ReadDotEnv(f)
			_ = f.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", opts.DotEnvPath, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("opening %s: %w", opts.DotEnvPath, err)
		}
	}
	for _, kv := range opts.Environ {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if err := ApplyEnv(cfg, env); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
