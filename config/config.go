// Package config loads the planning configuration from a YAML or JSON file
// with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	"github.com/ejosa-pasquale/HoreCa/core/fleet"
	"github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
	"github.com/ejosa-pasquale/HoreCa/infra/monitoring"
)

// EnvPrefix marks environment variables overriding the file. Nested keys are
// separated by a double underscore: CP_SEARCH__BUDGET=50000.
const EnvPrefix = "CP_"

type Config struct {
	Fleet    []GroupConfig     `json:"fleet"`
	Catalog  []StationConfig   `json:"catalog"`
	Search   SearchConfig      `json:"search"`
	Policy   PolicyConfig      `json:"policy"`
	Capacity capacity.Params   `json:"capacity"`
	Metrics  metrics.Config    `json:"metrics"`
	Logging  logger.Config     `json:"logging"`
	Output   OutputConfig      `json:"output"`
	Sentry   monitoring.Config `json:"sentry"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		Policy:   DefaultPolicy(),
		Capacity: capacity.Params{UtilizationPct: 100, TurnoverHours: capacity.DefaultParams().TurnoverHours},
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills the unset fields of every section.
func (c *Config) SetDefaults() {
	c.Search.SetDefaults()
	c.Policy.SetDefaults()
	if c.Capacity.OperatingHours == 0 {
		c.Capacity.OperatingHours = c.Policy.OperatingHours
	}
	c.Capacity.SetDefaults()
	c.Logging.SetDefaults()
	c.Output.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := fleet.Validate(c.Groups()); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if _, err := c.BuildCatalog(); err != nil {
		return err
	}
	if _, err := c.Search.Constraints(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := c.Capacity.Validate(); err != nil {
		return fmt.Errorf("capacity: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		return fmt.Errorf("sentry.traces_sample_rate must be in [0,1]")
	}
	return c.Output.Validate()
}
