package config

import (
	"fmt"
	"strings"

	"github.com/fortressi/saga/internal/checkout"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CHECKOUT"

type Config struct {
	Service string         `mapstructure:"service"`
	Log     Log            `mapstructure:"log"`
	Steps   []string       `mapstructure:"steps"`
	Order   checkout.Order `mapstructure:"order"`
	Stock   []StockLevel   `mapstructure:"stock"`
	Faults  Faults         `mapstructure:"faults"`
	Plan    bool           `mapstructure:"plan"`
	Metrics bool           `mapstructure:"metrics"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StockLevel seeds the inventory for one SKU.
type StockLevel struct {
	SKU      string `mapstructure:"sku"`
	Quantity int    `mapstructure:"quantity"`
}

// Faults selects failures to inject into a run.
type Faults struct {
	FailStep         string   `mapstructure:"fail_step"`
	FailCompensation []string `mapstructure:"fail_compensation"`
	Rate             float64  `mapstructure:"rate"`
	Seed             uint64   `mapstructure:"seed"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"config":            "",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"steps":             "steps",
	"fail-step":         "faults.fail_step",
	"fail-compensation": "faults.fail_compensation",
	"failure-rate":      "faults.rate",
	"seed":              "faults.seed",
	"plan":              "plan",
	"metrics":           "metrics",
}

// RegisterFlags defines the command-line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a JSON or YAML config file")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (json, console)")
	fs.StringSlice("steps", nil, "ordered step names")
	fs.String("fail-step", "", "force the forward action of this step to fail")
	fs.StringSlice("fail-compensation", nil, "force the compensation of these steps to fail")
	fs.Float64("failure-rate", 0, "probability that each forward action fails")
	fs.Uint64("seed", 0, "seed for random failures")
	fs.Bool("plan", false, "print the saga plan as DOT and exit")
	fs.Bool("metrics", false, "print Prometheus metrics after the run")
}

// Load reads configuration from defaults, an optional config file, the
// environment (CHECKOUT_ prefix) and flags, in increasing precedence.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if key == "" {
				continue
			}
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if flag := fs.Lookup("config"); flag != nil && flag.Value.String() != "" {
			v.SetConfigFile(flag.Value.String())
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "checkout")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	steps := make([]string, len(checkout.DefaultPipeline))
	for i, name := range checkout.DefaultPipeline {
		steps[i] = string(name)
	}
	v.SetDefault("steps", steps)

	v.SetDefault("order.id", "ORDER-1")
	v.SetDefault("order.amount", 49.90)
	v.SetDefault("order.currency", "EUR")
	v.SetDefault("order.sku", "SKU-1")
	v.SetDefault("order.quantity", 1)
	v.SetDefault("order.address", "1 Main Street")
	v.SetDefault("stock", []map[string]any{{"sku": "SKU-1", "quantity": 10}})

	v.SetDefault("faults.rate", 0.0)
	v.SetDefault("faults.seed", 1)
}

// StockLevels returns the configured stock keyed by SKU.
func (c *Config) StockLevels() map[string]int {
	levels := make(map[string]int, len(c.Stock))
	for _, s := range c.Stock {
		levels[s.SKU] += s.Quantity
	}
	return levels
}

// Validate checks that fault targets name configured steps.
func (c *Config) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("config: at least one step is required")
	}
	known := make(map[string]bool, len(c.Steps))
	for _, s := range c.Steps {
		known[s] = true
	}
	if c.Faults.FailStep != "" && !known[c.Faults.FailStep] {
		return fmt.Errorf("config: fail_step %q is not a configured step", c.Faults.FailStep)
	}
	for _, s := range c.Faults.FailCompensation {
		if !known[s] {
			return fmt.Errorf("config: fail_compensation %q is not a configured step", s)
		}
	}
	if c.Faults.Rate < 0 || c.Faults.Rate > 1 {
		return fmt.Errorf("config: failure rate %v outside [0, 1]", c.Faults.Rate)
	}
	return nil
}
