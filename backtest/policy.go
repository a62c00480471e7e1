package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/marketlab/config"
)

// Kind is the rebalance policy variant.
type Kind int

const (
	Periodic Kind = iota
	SingleEntry
)

// Interval is the calendar period a Periodic policy rebalances on.
type Interval int

const (
	Monthly Interval = iota
	Quarterly
	Yearly
	Weekly
)

func (iv Interval) String() string {
	switch iv {
	case Monthly:
		return config.IntervalMonthly
	case Quarterly:
		return config.IntervalQuarterly
	case Yearly:
		return config.IntervalYearly
	case Weekly:
		return config.IntervalWeekly
	}
	return fmt.Sprintf("interval(%d)", int(iv))
}

// period keys a date to its calendar bucket.
func (iv Interval) period(d time.Time) int {
	switch iv {
	case Quarterly:
		return d.Year()*4 + (int(d.Month())-1)/3
	case Yearly:
		return d.Year()
	case Weekly:
		y, w := d.ISOWeek()
		return y*54 + w
	}
	return d.Year()*12 + int(d.Month()) - 1
}

// Policy is the equal-weight rebalance rule, one of a closed set of variants.
//
//	Periodic(iv)  fires on the first trading date of each iv period, targets
//	              current equity / N per asset.
//	SingleEntry   fires once on the first date, targets initial cash / N.
type Policy struct {
	Kind     Kind
	Interval Interval
}

func PeriodicPolicy(iv Interval) Policy { return Policy{Kind: Periodic, Interval: iv} }
func SingleEntryPolicy() Policy         { return Policy{Kind: SingleEntry} }

// ParsePolicy maps config names to a Policy. An empty interval means monthly.
func ParsePolicy(name, interval string) (Policy, error) {
	switch name {
	case config.PolicyBuyAndHold:
		return SingleEntryPolicy(), nil
	case config.PolicyPeriodic:
	default:
		return Policy{}, &config.Error{Field: "strategy.policy", Reason: fmt.Sprintf("unknown policy %q", name)}
	}

	switch interval {
	case "", config.IntervalMonthly:
		return PeriodicPolicy(Monthly), nil
	case config.IntervalQuarterly:
		return PeriodicPolicy(Quarterly), nil
	case config.IntervalYearly:
		return PeriodicPolicy(Yearly), nil
	case config.IntervalWeekly:
		return PeriodicPolicy(Weekly), nil
	}
	return Policy{}, &config.Error{Field: "strategy.interval", Reason: fmt.Sprintf("unknown interval %q", interval)}
}

func (p Policy) String() string {
	if p.Kind == SingleEntry {
		return config.PolicyBuyAndHold
	}
	return config.PolicyPeriodic + "(" + p.Interval.String() + ")"
}

// Targets returns the target value per asset for a firing date.
func (p Policy) Targets(equity, initialCash float64, assets int) []float64 {
	basis := equity
	if p.Kind == SingleEntry {
		basis = initialCash
	}
	w := 1.0 / float64(assets)
	out := make([]float64, assets)
	for i := range out {
		out[i] = basis * w
	}
	return out
}

// schedule is the per-run state machine that decides whether a date fires.
// Dates must be fed in ascending order.
type schedule struct {
	policy Policy
	seen   bool
	last   int
}

func (p Policy) newSchedule() *schedule { return &schedule{policy: p} }

func (s *schedule) fires(d time.Time) bool {
	if s.policy.Kind == SingleEntry {
		first := !s.seen
		s.seen = true
		return first
	}

	k := s.policy.Interval.period(d)
	fire := !s.seen || k != s.last
	s.seen = true
	s.last = k
	return fire
}

// Schedule reports, for each date, whether the policy rebalances on it.
func (p Policy) Schedule(dates []time.Time) []bool {
	s := p.newSchedule()
	out := make([]bool, len(dates))
	for i, d := range dates {
		out[i] = s.fires(d)
	}
	return out
}
