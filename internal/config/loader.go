package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Load builds a Config from the defaults, the settings held by v and then
// JTALK_* environment variables, in increasing order of precedence. Paths
// starting with ~ are expanded.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v != nil {
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("unable to decode configuration: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse environment: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Binary, &c.DicDir, &c.Voice, &c.OutputDir, &c.Player} {
		if !strings.HasPrefix(*p, "~") {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("unable to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}
