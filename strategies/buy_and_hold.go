package strategies

import (
	"context"

	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/ledger"
)

// BuyAndHold buys one instrument once and holds it for the rest of the
// run. If the entry order is voided by an overspend rejection, it simply
// tries again the next day (the position check keys off actual holdings,
// not an internal flag).
type BuyAndHold struct {
	Instrument string // "" = first instrument
	Size       float64
}

func (s *BuyAndHold) Name() string { return "buy-and-hold" }

func (s *BuyAndHold) IntentsForDay(ctx context.Context, view MarketView) []engine.Intent {
	instr := target(view, s.Instrument)
	if instr == "" || s.Size <= 0 {
		return nil
	}
	if view.Position(instr).Quantity != 0 {
		return nil
	}

	return []engine.Intent{{
		Instrument: instr,
		Side:       ledger.Buy,
		Kind:       engine.Market,
		Quantity:   s.Size,
	}}
}
