// Package config loads CLI configuration from defaults, fieldres.yaml,
// FIELDRES_* environment variables and explicitly set flags.
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
)

// Defaults.
const (
	DefaultFormat   = "text"
	DefaultPrefix   = "departure"
	DefaultFileName = "fieldres.yaml"
	EnvPrefix       = "FIELDRES_"
)

// Config is the merged CLI configuration.
type Config struct {
	Format         string `koanf:"format"`
	Verbose        bool   `koanf:"verbose"`
	Database       string `koanf:"database"`
	Parallel       int    `koanf:"parallel"`
	RuleSingletons bool   `koanf:"rule_singletons"`
	Prefix         string `koanf:"prefix"`

	// File is the config file that was read, empty if none.
	File string `koanf:"-"`
}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"db": "database",
}

// Load merges configuration sources.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// cfgFile names an explicit config file, which must exist. Without one,
// fieldres.yaml in the working directory is used when present. Only flags
// with Changed set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"format":          DefaultFormat,
		"verbose":         false,
		"database":        "",
		"parallel":        0,
		"rule_singletons": false,
		"prefix":          DefaultPrefix,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			used = DefaultFileName
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: FIELDRES_RULE_SINGLETONS -> rule_singletons
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
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
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", c.Format)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("invalid parallel %d: must be >= 0", c.Parallel)
	}
	return nil
}
