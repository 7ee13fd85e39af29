// Package strategies defines the contract student strategies implement
// and a small registry of built-in examples. Strategies vary only in
// decision logic; they all produce order intents once per day and may
// observe the settlement that follows.
package strategies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/ledger"
	"github.com/tradelab/harness/market"
)

// MarketView is the read-only window a strategy sees on each day:
// history up to and including the current bar, plus post-settlement
// account snapshots from the previous day.
type MarketView interface {
	Day() int
	Date() time.Time
	Instruments() []string
	Bar(instrument string) (market.Bar, bool)
	History(instrument string) []market.Bar
	Cash() float64
	Position(instrument string) ledger.Position
}

// Strategy is the single required capability: produce the day's order
// intents. Implementations must be deterministic for reproducible runs.
type Strategy interface {
	Name() string
	IntentsForDay(ctx context.Context, view MarketView) []engine.Intent
}

// SettlementObserver is optionally implemented by strategies that want
// the day's fills and rejection/halt notices after settlement.
type SettlementObserver interface {
	OnSettlement(res engine.DayResult)
}

// Params carries the knobs shared by the built-in strategies.
type Params struct {
	Instrument     string  // "" means the first instrument in the dataset
	Size           float64 // units per order
	Fast, Slow     int     // sma-cross periods
	SpreadPct      float64 // simple-limit: spread as a fraction of the daily range
	InventoryLimit float64 // simple-limit: flatten beyond this absolute position
}

// ByName builds a built-in strategy.
func ByName(name string, p Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "buy-and-hold", "buyandhold":
		return &BuyAndHold{Instrument: p.Instrument, Size: p.Size}, nil

	case "sma-cross", "smacross":
		return NewSMACross(p.Instrument, p.Size, p.Fast, p.Slow), nil

	case "simple-limit", "limit":
		return &SimpleLimit{
			Instrument:     p.Instrument,
			Size:           p.Size,
			SpreadPct:      p.SpreadPct,
			InventoryLimit: p.InventoryLimit,
		}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, buy-and-hold, sma-cross, simple-limit)", name)
	}
}

// target resolves the instrument a single-instrument strategy trades.
func target(view MarketView, instrument string) string {
	if instrument != "" {
		return instrument
	}
	if names := view.Instruments(); len(names) > 0 {
		return names[0]
	}
	return ""
}
