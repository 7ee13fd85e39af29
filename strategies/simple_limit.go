package strategies

import (
	"context"
	"math"

	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/ledger"
)

// SimpleLimit quotes both sides of one instrument every day: a buy limit
// below the open and a sell limit above it, half a spread away each. The
// spread is a fraction of yesterday's high-low range. When inventory
// exceeds the limit, the position is flattened with a market order
// instead of quoting.
type SimpleLimit struct {
	Instrument     string
	Size           float64
	SpreadPct      float64 // default 0.3
	InventoryLimit float64 // default 50
}

func (s *SimpleLimit) Name() string { return "simple-limit" }

func (s *SimpleLimit) IntentsForDay(ctx context.Context, view MarketView) []engine.Intent {
	instr := target(view, s.Instrument)
	if instr == "" || s.Size <= 0 {
		return nil
	}

	spreadPct := s.SpreadPct
	if spreadPct <= 0 {
		spreadPct = 0.3
	}
	invLimit := s.InventoryLimit
	if invLimit <= 0 {
		invLimit = 50
	}

	pos := view.Position(instr)
	if math.Abs(pos.Quantity) > invLimit {
		side := ledger.Sell
		if pos.Quantity < 0 {
			side = ledger.Buy
		}
		return []engine.Intent{{
			Instrument: instr,
			Side:       side,
			Kind:       engine.Market,
			Quantity:   math.Abs(pos.Quantity),
		}}
	}

	bars := view.History(instr)
	if len(bars) < 2 {
		return nil
	}
	yesterday := bars[len(bars)-2]
	today := bars[len(bars)-1]

	spread := spreadPct * (yesterday.High - yesterday.Low)
	if spread <= 0 {
		return nil
	}
	center := today.Open

	bid := center - 0.5*spread
	ask := center + 0.5*spread
	if bid <= 0 {
		return nil
	}

	return []engine.Intent{
		{Instrument: instr, Side: ledger.Buy, Kind: engine.Limit, Quantity: s.Size, Limit: bid},
		{Instrument: instr, Side: ledger.Sell, Kind: engine.Limit, Quantity: s.Size, Limit: ask},
	}
}
