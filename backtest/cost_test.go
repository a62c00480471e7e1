package backtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marketlab/config"
	"github.com/rustyeddy/marketlab/journal"
)

func TestNewCostModel(t *testing.T) {
	cm, err := NewCostModel(5, 2, 1.5)
	require.NoError(t, err)

	assert.InDelta(t, 0.0005, cm.FeeRate, 1e-15)
	assert.InDelta(t, 0.0002, cm.SlippageRate, 1e-15)
	assert.Equal(t, 1.5, cm.FixedPerTrade)
}

func TestNewCostModelRejectsNegative(t *testing.T) {
	tests := []struct {
		name  string
		fee   float64
		slip  float64
		fixed float64
		field string
	}{
		{"fee", -1, 0, 0, "costs.fee_bps"},
		{"slippage", 0, -0.5, 0, "costs.slippage_bps"},
		{"fixed", 0, 0, -2, "costs.fixed_per_trade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCostModel(tt.fee, tt.slip, tt.fixed)
			require.Error(t, err)

			var cerr *config.Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestCostModelValidate(t *testing.T) {
	assert.NoError(t, CostModel{}.Validate())
	assert.Error(t, CostModel{FeeRate: -0.1}.Validate())
	assert.Error(t, CostModel{SlippageRate: -0.1}.Validate())
	assert.Error(t, CostModel{FixedPerTrade: -0.1}.Validate())
}

func TestExecPrice(t *testing.T) {
	cm := CostModel{SlippageRate: BpsToRate(10)}

	assert.InDelta(t, 100.1, cm.ExecPrice(journal.Buy, 100), 1e-9)
	assert.InDelta(t, 99.9, cm.ExecPrice(journal.Sell, 100), 1e-9)

	zero := CostModel{}
	assert.Equal(t, 100.0, zero.ExecPrice(journal.Buy, 100))
	assert.Equal(t, 100.0, zero.ExecPrice(journal.Sell, 100))
}

func TestFees(t *testing.T) {
	cm := CostModel{FeeRate: 0.001, FixedPerTrade: 2}

	v, f, total := cm.Fees(1000)
	assert.InDelta(t, 1.0, v, 1e-12)
	assert.Equal(t, 2.0, f)
	assert.InDelta(t, 3.0, total, 1e-12)
}

func TestApply(t *testing.T) {
	cm := CostModel{FeeRate: 0.001, SlippageRate: 0.01}

	px, fee := cm.Apply(journal.Buy, 50, 10)
	assert.InDelta(t, 50.5, px, 1e-9)
	assert.InDelta(t, 0.505, fee, 1e-9)

	px, fee = cm.Apply(journal.Sell, 50, 10)
	assert.InDelta(t, 49.5, px, 1e-9)
	assert.InDelta(t, 0.495, fee, 1e-9)
}

func TestMaxAffordable(t *testing.T) {
	cm := CostModel{FeeRate: 0.01, FixedPerTrade: 1}

	n := cm.MaxAffordable(102)
	assert.InDelta(t, 100.0, n, 1e-9)

	_, _, total := cm.Fees(n)
	assert.InDelta(t, 102.0, n+total, 1e-9)

	assert.Equal(t, 0.0, cm.MaxAffordable(0.5), "cash below the fixed charge")
	assert.Equal(t, 0.0, cm.MaxAffordable(1), "cash equal to the fixed charge")
}
