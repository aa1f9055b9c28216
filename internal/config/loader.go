package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"crawldash/internal/utils"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: CRAWLDASH_BACKEND__URL sets backend.url.
const EnvPrefix = "CRAWLDASH_"

// FileName is the config file looked up when none is given.
const FileName = "crawldash.yaml"

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"backend":    "backend.url",
	"timeout":    "backend.timeout",
	"log-level":  "log.level",
	"log-file":   "log.file",
	"log-format": "log.format",
}

// Result is a loaded configuration and the file it came from, if any.
type Result struct {
	Config *Config
	File   string
}

// Load reads configuration with precedence flags > env > file > defaults.
// cfgFile may be empty, in which case ./crawldash.yaml and then the file
// next to the executable are tried. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Result, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"backend.url":           DefaultBackendURL,
		"backend.timeout":       DefaultBackendTimeout.String(),
		"listen":                DefaultListen,
		"log.level":             DefaultLogLevel,
		"log.format":            DefaultLogFormat,
		"log.file":              "",
		"rate_limit.per_minute": DefaultRatePerMinute,
		"rate_limit.burst":      DefaultRateBurst,
		"tls.enabled":           false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Result{Config: &cfg, File: used}, nil
}

// envKey turns CRAWLDASH_RATE_LIMIT__PER_MINUTE into rate_limit.per_minute.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// findConfigFile returns the explicit path, which must exist, or the first
// default location that does. An empty result means no file.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, candidate := range []string{FileName, utils.DefaultPaths().ConfigFile()} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}
