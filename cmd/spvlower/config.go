package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/spvfront/lower"
)

const configFileName = "spvlower.toml"

type config struct {
	Lower  lowerConfig  `toml:"lower"`
	Output outputConfig `toml:"output"`
}

type lowerConfig struct {
	Jobs     int    `toml:"jobs"`
	OnError  string `toml:"on_error"`
	Validate bool   `toml:"validate"`
}

type outputConfig struct {
	Format string `toml:"format"`
}

func defaultConfig() config {
	return config{
		Lower: lowerConfig{
			Jobs:     1,
			OnError:  lower.PolicyAbort.String(),
			Validate: true,
		},
		Output: outputConfig{Format: "text"},
	}
}

// findConfig looks for spvlower.toml in startDir and its parents.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// loadConfig reads a config file over the defaults. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.check(); err != nil {
		return config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c config) check() error {
	if c.Lower.Jobs < 1 {
		return fmt.Errorf("lower.jobs must be at least 1, got %d", c.Lower.Jobs)
	}
	if _, err := lower.ParsePolicy(c.Lower.OnError); err != nil {
		return fmt.Errorf("lower.on_error: %w", err)
	}
	switch c.Output.Format {
	case "text", "msgpack":
	default:
		return fmt.Errorf("output.format must be text or msgpack, got %q", c.Output.Format)
	}
	return nil
}

func (c config) lowerOptions() lower.Options {
	policy, _ := lower.ParsePolicy(c.Lower.OnError)
	opts := lower.DefaultOptions()
	opts.Jobs = c.Lower.Jobs
	opts.OnError = policy
	return opts
}
