package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 1000.0, cfg.Account.InitialCash)
	assert.Equal(t, 5.0, cfg.Costs.FeeBps)
	assert.Equal(t, 2.0, cfg.Costs.SlippageBps)
	assert.Equal(t, 0.0, cfg.Costs.FixedPerTrade)
	assert.Equal(t, PolicyPeriodic, cfg.Strategy.Policy)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	mod := func(f func(c *Config)) *Config {
		c := Default()
		f(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  Default(),
			wantErr: false,
		},
		{
			name:    "buy and hold",
			config:  mod(func(c *Config) { c.Strategy = StrategyConfig{Policy: PolicyBuyAndHold} }),
			wantErr: false,
		},
		{
			name:    "missing panel",
			config:  mod(func(c *Config) { c.Panel.Path = "" }),
			wantErr: true,
			errMsg:  "panel.path is required",
		},
		{
			name:    "zero cash",
			config:  mod(func(c *Config) { c.Account.InitialCash = 0 }),
			wantErr: true,
			errMsg:  "account.initial_cash must be positive",
		},
		{
			name:    "negative fee",
			config:  mod(func(c *Config) { c.Costs.FeeBps = -1 }),
			wantErr: true,
			errMsg:  "costs.fee_bps must be non-negative",
		},
		{
			name:    "negative slippage",
			config:  mod(func(c *Config) { c.Costs.SlippageBps = -0.5 }),
			wantErr: true,
			errMsg:  "costs.slippage_bps must be non-negative",
		},
		{
			name:    "negative fixed",
			config:  mod(func(c *Config) { c.Costs.FixedPerTrade = -2 }),
			wantErr: true,
			errMsg:  "costs.fixed_per_trade must be non-negative",
		},
		{
			name:    "unknown policy",
			config:  mod(func(c *Config) { c.Strategy.Policy = "momentum" }),
			wantErr: true,
			errMsg:  "strategy.policy",
		},
		{
			name:    "unknown interval",
			config:  mod(func(c *Config) { c.Strategy.Interval = "daily" }),
			wantErr: true,
			errMsg:  "unknown interval",
		},
		{
			name:    "missing outputs",
			config:  mod(func(c *Config) { c.Journal.EquityFile = "" }),
			wantErr: true,
			errMsg:  "trades_file and equity_file are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var cerr *Error
				assert.True(t, errors.As(err, &cerr))
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Costs.FixedPerTrade = 1.5
			cfg.Journal.DBPath = "runs.sqlite"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			_, err = os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("panel:\n  path: x.csv\ncosts:\n  fee_bps: 1\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x.csv", cfg.Panel.Path)
	assert.Equal(t, 1.0, cfg.Costs.FeeBps)
	assert.Equal(t, 2.0, cfg.Costs.SlippageBps)
	assert.Equal(t, 1000.0, cfg.Account.InitialCash)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("costs:\n  fee_bps: -5\n"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	var cerr *Error
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, "costs.fee_bps", cerr.Field)
}

func TestReadFromFileDoesNotValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("costs:\n  fee_bps: -5\n"), 0644))

	cfg, err := ReadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, -5.0, cfg.Costs.FeeBps)
	assert.Error(t, cfg.Validate())

	cfg.Costs.FeeBps = 3
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}
