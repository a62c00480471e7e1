package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
)

// Order is a desired change in the value held of one asset.
// Delta > 0 buys, Delta < 0 sells.
type Order struct {
	Date  time.Time
	Asset int    // universe index
	Name  string // asset identifier, copied into the trade record
	Delta float64
	Quote float64 // panel close for Date
}

// Execute turns an order into at most one trade and applies it to p.
//
// Sells are clamped to the quantity held. Buys are clamped to what cash can
// pay for including fees. Orders that size to zero, or a sell whose proceeds
// cannot cover its own fixed charge, produce no trade and leave p unchanged.
// Such a sell is skipped whole rather than trimmed: the position is not
// reduced to make the fees fit.
func Execute(p *Portfolio, o Order, cm CostModel) (journal.TradeRecord, bool) {
	switch {
	case o.Delta < 0:
		return executeSell(p, o, cm)
	case o.Delta > 0:
		return executeBuy(p, o, cm)
	}
	return journal.TradeRecord{}, false
}

func executeSell(p *Portfolio, o Order, cm CostModel) (journal.TradeRecord, bool) {
	price := cm.ExecPrice(journal.Sell, o.Quote)
	qty := math.Min(-o.Delta/price, p.Qty[o.Asset])
	if qty <= 0 {
		return journal.TradeRecord{}, false
	}

	notional := qty * price
	feeVar, feeFixed, feeTotal := cm.Fees(notional)

	cash := p.Cash + notional - feeTotal
	if cash < 0 {
		return journal.TradeRecord{}, false
	}

	p.Cash = cash
	p.Qty[o.Asset] -= qty
	if p.Qty[o.Asset] < 0 {
		p.Qty[o.Asset] = 0
	}

	return journal.TradeRecord{
		Date:     o.Date,
		Asset:    o.Name,
		Side:     journal.Sell,
		Qty:      qty,
		Price:    price,
		Notional: notional,
		FeeVar:   feeVar,
		FeeFixed: feeFixed,
		FeeTotal: feeTotal,
	}, true
}

func executeBuy(p *Portfolio, o Order, cm CostModel) (journal.TradeRecord, bool) {
	price := cm.ExecPrice(journal.Buy, o.Quote)
	notional := math.Min(o.Delta, cm.MaxAffordable(p.Cash))
	if notional <= 0 {
		return journal.TradeRecord{}, false
	}

	qty := notional / price
	feeVar, feeFixed, feeTotal := cm.Fees(notional)

	p.Cash -= notional + feeTotal
	// MaxAffordable solves the budget exactly; only rounding can leave dust below zero.
	if p.Cash < 0 {
		p.Cash = 0
	}
	p.Qty[o.Asset] += qty

	return journal.TradeRecord{
		Date:     o.Date,
		Asset:    o.Name,
		Side:     journal.Buy,
		Qty:      qty,
		Price:    price,
		Notional: notional,
		FeeVar:   feeVar,
		FeeFixed: feeFixed,
		FeeTotal: feeTotal,
	}, true
}

// Rebalance moves p toward target values (universe order) at today's closes.
//
// Deltas are computed once from the pre-trade holdings. Every sell runs before
// any buy so sale proceeds fund the buys; within a side assets run in
// ascending universe order, which also decides who gets cash first when the
// buys cannot all be funded.
func Rebalance(p *Portfolio, date time.Time, assets market.Universe, prices, targets []float64, cm CostModel) []journal.TradeRecord {
	deltas := make([]float64, len(assets))
	for i := range assets {
		deltas[i] = targets[i] - p.Qty[i]*prices[i]
	}

	var trades []journal.TradeRecord
	for _, side := range []journal.Side{journal.Sell, journal.Buy} {
		for i, name := range assets {
			d := deltas[i]
			if (side == journal.Sell && d >= 0) || (side == journal.Buy && d <= 0) {
				continue
			}
			tr, ok := Execute(p, Order{Date: date, Asset: i, Name: name, Delta: d, Quote: prices[i]}, cm)
			if ok {
				trades = append(trades, tr)
			}
		}
	}
	return trades
}
