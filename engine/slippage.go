package engine

import (
	"math"

	"github.com/tradelab/harness/ledger"
)

// GapSlippage models execution cost across price gaps. Market orders fill
// at a base price (the day's open, or the close for liquidations); when
// that base has gapped away from the prior reference price by more than
// Threshold (a fraction of the reference), the fill is worsened by Mult
// times the gap: buys pay more, sells receive less. With no gap beyond
// the threshold the fill price equals the base price.
//
// Pure and deterministic; no randomness, no state.
type GapSlippage struct {
	Threshold float64 // gap fraction below which no slippage is charged
	Mult      float64 // fraction of the gap charged against the trader
}

// FillPrice returns the executed price for a market order.
//
// base is the price the order trades at (today's open for day-open fills,
// today's close for liquidation fills); ref is the prior reference price
// (yesterday's close, or today's open for liquidations). On the first
// trading day callers pass ref == base, so no gap can be detected.
func (m GapSlippage) FillPrice(side ledger.Side, base, ref float64) float64 {
	gap := math.Abs(base - ref)
	if ref <= 0 || gap <= m.Threshold*ref {
		return base
	}

	px := base + float64(side)*m.Mult*gap
	if px <= 0 {
		// Degenerate crash day: keep the fill price positive.
		px = math.SmallestNonzeroFloat64
	}
	return px
}
