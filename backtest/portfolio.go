package backtest

// Portfolio is the mutable state of a run: cash plus holdings indexed by
// universe position. Only Execute mutates it.
type Portfolio struct {
	Cash float64
	Qty  []float64
}

func NewPortfolio(cash float64, assets int) *Portfolio {
	return &Portfolio{
		Cash: cash,
		Qty:  make([]float64, assets),
	}
}

// Value returns cash plus holdings marked at prices (universe order).
func (p *Portfolio) Value(prices []float64) float64 {
	v := p.Cash
	for i, q := range p.Qty {
		v += q * prices[i]
	}
	return v
}

// Positions returns per-asset quantity and market value copies.
func (p *Portfolio) Positions(prices []float64) (qty, value []float64) {
	qty = make([]float64, len(p.Qty))
	value = make([]float64, len(p.Qty))
	copy(qty, p.Qty)
	for i, q := range p.Qty {
		value[i] = q * prices[i]
	}
	return qty, value
}
