package backtest

import (
	"github.com/rustyeddy/marketlab/config"
	"github.com/rustyeddy/marketlab/journal"
)

// CostModel prices a trade. Rates are fractions (bps / 10_000).
type CostModel struct {
	FeeRate       float64
	SlippageRate  float64
	FixedPerTrade float64
}

func BpsToRate(bps float64) float64 {
	return bps / 10_000.0
}

// NewCostModel builds a CostModel from basis points and a fixed charge per trade.
func NewCostModel(feeBps, slippageBps, fixedPerTrade float64) (CostModel, error) {
	cfg := config.CostsConfig{FeeBps: feeBps, SlippageBps: slippageBps, FixedPerTrade: fixedPerTrade}
	if err := cfg.Validate(); err != nil {
		return CostModel{}, err
	}
	return CostModel{
		FeeRate:       BpsToRate(feeBps),
		SlippageRate:  BpsToRate(slippageBps),
		FixedPerTrade: fixedPerTrade,
	}, nil
}

func (c CostModel) Validate() error {
	switch {
	case c.FeeRate < 0:
		return &config.Error{Field: "costs.fee_bps", Reason: "must be non-negative"}
	case c.SlippageRate < 0:
		return &config.Error{Field: "costs.slippage_bps", Reason: "must be non-negative"}
	case c.FixedPerTrade < 0:
		return &config.Error{Field: "costs.fixed_per_trade", Reason: "must be non-negative"}
	}
	return nil
}

// ExecPrice applies slippage against the trader: buys pay up, sells receive less.
func (c CostModel) ExecPrice(side journal.Side, quoted float64) float64 {
	if side == journal.Sell {
		return quoted * (1.0 - c.SlippageRate)
	}
	return quoted * (1.0 + c.SlippageRate)
}

// Fees for an executed notional. The fixed charge applies to every trade.
func (c CostModel) Fees(notional float64) (variable, fixed, total float64) {
	variable = notional * c.FeeRate
	fixed = c.FixedPerTrade
	return variable, fixed, variable + fixed
}

// Apply returns the execution price and variable fee for qty units quoted at price.
func (c CostModel) Apply(side journal.Side, quoted, qty float64) (execPrice, variableFee float64) {
	execPrice = c.ExecPrice(side, quoted)
	variableFee, _, _ = c.Fees(qty * execPrice)
	return execPrice, variableFee
}

// MaxAffordable is the largest notional n with n + n*fee_rate + fixed <= cash.
func (c CostModel) MaxAffordable(cash float64) float64 {
	n := (cash - c.FixedPerTrade) / (1.0 + c.FeeRate)
	if n < 0 {
		return 0
	}
	return n
}
