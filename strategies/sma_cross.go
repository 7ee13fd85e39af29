package strategies

import (
	"context"

	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/indicators"
	"github.com/tradelab/harness/ledger"
)

// SMACross trades a single instrument on a fast/slow SMA crossover:
// enters long when the fast average crosses above the slow, exits when
// it crosses back below. Long-only; entries and exits are market orders.
type SMACross struct {
	Instrument string
	Size       float64
	Fast, Slow int

	lastDiff     float64
	haveLastDiff bool
}

func NewSMACross(instrument string, size float64, fast, slow int) *SMACross {
	if fast <= 0 {
		fast = 10
	}
	if slow <= fast {
		slow = 3 * fast
	}
	return &SMACross{Instrument: instrument, Size: size, Fast: fast, Slow: slow}
}

func (s *SMACross) Name() string { return "sma-cross" }

func (s *SMACross) IntentsForDay(ctx context.Context, view MarketView) []engine.Intent {
	instr := target(view, s.Instrument)
	if instr == "" || s.Size <= 0 {
		return nil
	}

	bars := view.History(instr)
	fast, err := indicators.SMA(bars, s.Fast)
	if err != nil {
		return nil
	}
	slow, err := indicators.SMA(bars, s.Slow)
	if err != nil {
		return nil
	}

	diff := fast - slow
	crossedUp := s.haveLastDiff && s.lastDiff <= 0 && diff > 0
	crossedDown := s.haveLastDiff && s.lastDiff >= 0 && diff < 0
	s.lastDiff = diff
	s.haveLastDiff = true

	pos := view.Position(instr)

	switch {
	case crossedUp && pos.Quantity == 0:
		return []engine.Intent{{
			Instrument: instr,
			Side:       ledger.Buy,
			Kind:       engine.Market,
			Quantity:   s.Size,
		}}

	case crossedDown && pos.Quantity > 0:
		return []engine.Intent{{
			Instrument: instr,
			Side:       ledger.Sell,
			Kind:       engine.Market,
			Quantity:   pos.Quantity,
		}}
	}

	return nil
}
