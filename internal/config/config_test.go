package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(viper.New(), fs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Service)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"payment", "inventory", "shipping"}, cfg.Steps)
	assert.Equal(t, "ORDER-1", cfg.Order.ID)
	assert.InDelta(t, 49.90, cfg.Order.Amount, 0.001)
	assert.Equal(t, 1, cfg.Order.Quantity)
	assert.Equal(t, map[string]int{"SKU-1": 10}, cfg.StockLevels())
	assert.Empty(t, cfg.Faults.FailStep)
	assert.Zero(t, cfg.Faults.Rate)
	assert.False(t, cfg.Plan)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := load(t,
		"--log-level", "debug",
		"--fail-step", "shipping",
		"--fail-compensation", "payment,inventory",
		"--seed", "42",
		"--plan",
	)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "shipping", cfg.Faults.FailStep)
	assert.Equal(t, []string{"payment", "inventory"}, cfg.Faults.FailCompensation)
	assert.Equal(t, uint64(42), cfg.Faults.Seed)
	assert.True(t, cfg.Plan)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("CHECKOUT_LOG_FORMAT", "json")
	t.Setenv("CHECKOUT_FAULTS_RATE", "0.25")
	t.Setenv("CHECKOUT_ORDER_ADDRESS", "2 Side Road")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 0.25, cfg.Faults.Rate, 0.0001)
	assert.Equal(t, "2 Side Road", cfg.Order.Address)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service: shop
steps: [payment, inventory]
order:
  id: ORDER-9
  amount: 10
  sku: SKU-9
  quantity: 3
stock:
  - sku: SKU-9
    quantity: 5
faults:
  fail_step: inventory
`), 0o600))

	cfg, err := load(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.Service)
	assert.Equal(t, []string{"payment", "inventory"}, cfg.Steps)
	assert.Equal(t, "ORDER-9", cfg.Order.ID)
	assert.Equal(t, 3, cfg.Order.Quantity)
	assert.Equal(t, map[string]int{"SKU-9": 5}, cfg.StockLevels())
	assert.Equal(t, "inventory", cfg.Faults.FailStep)
	assert.Equal(t, "1 Main Street", cfg.Order.Address, "defaults fill the gaps")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := load(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Steps: []string{"payment", "inventory", "shipping"}}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Steps = nil
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Faults.FailStep = "billing"
	assert.ErrorContains(t, cfg.Validate(), "fail_step")

	cfg = valid()
	cfg.Faults.FailCompensation = []string{"payment", "billing"}
	assert.ErrorContains(t, cfg.Validate(), "fail_compensation")

	cfg = valid()
	cfg.Faults.Rate = 1.5
	assert.ErrorContains(t, cfg.Validate(), "failure rate")

	_, err := load(t, "--fail-step", "billing")
	assert.Error(t, err)
}
