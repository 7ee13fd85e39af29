package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/ledger"
	"github.com/tradelab/harness/market"
)

// fakeView serves one instrument's bars up to the current day.
type fakeView struct {
	instrument string
	bars       []market.Bar
	day        int
	cash       float64
	position   ledger.Position
}

func (v *fakeView) Day() int              { return v.day }
func (v *fakeView) Date() time.Time       { return v.bars[v.day].Date }
func (v *fakeView) Instruments() []string { return []string{v.instrument} }
func (v *fakeView) Cash() float64         { return v.cash }

func (v *fakeView) Bar(instrument string) (market.Bar, bool) {
	if instrument != v.instrument {
		return market.Bar{}, false
	}
	return v.bars[v.day], true
}

func (v *fakeView) History(instrument string) []market.Bar {
	if instrument != v.instrument {
		return nil
	}
	return v.bars[:v.day+1]
}

func (v *fakeView) Position(instrument string) ledger.Position {
	if instrument == v.position.Instrument {
		return v.position
	}
	return ledger.Position{Instrument: instrument}
}

func viewWithCloses(instrument string, closes ...float64) *fakeView {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return &fakeView{instrument: instrument, bars: bars, day: len(bars) - 1, cash: 100_000}
}

func TestByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"noop", "buy-and-hold", "sma-cross", "simple-limit"} {
		s, err := ByName(name, Params{Size: 1})
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}

	_, err := ByName("martingale", Params{})
	assert.Error(t, err)
}

func TestNoopPlacesNothing(t *testing.T) {
	t.Parallel()

	view := viewWithCloses("ACME", 100)
	assert.Empty(t, Noop{}.IntentsForDay(context.Background(), view))
}

func TestBuyAndHoldEntersOnceThenHolds(t *testing.T) {
	t.Parallel()

	s := &BuyAndHold{Size: 10}
	view := viewWithCloses("ACME", 100)

	intents := s.IntentsForDay(context.Background(), view)
	require.Len(t, intents, 1)
	assert.Equal(t, "ACME", intents[0].Instrument)
	assert.Equal(t, ledger.Buy, intents[0].Side)
	assert.Equal(t, engine.Market, intents[0].Kind)
	assert.Equal(t, 10.0, intents[0].Quantity)

	// Once holding, no further orders.
	view.position = ledger.Position{Instrument: "ACME", Quantity: 10, AvgEntry: 100}
	assert.Empty(t, s.IntentsForDay(context.Background(), view))
}

func TestBuyAndHoldRetriesAfterVoidedBatch(t *testing.T) {
	t.Parallel()

	s := &BuyAndHold{Size: 10}
	view := viewWithCloses("ACME", 100, 101)

	// Day 0 intent voided upstream: position stays flat, so day 1 retries.
	require.Len(t, s.IntentsForDay(context.Background(), view), 1)
	require.Len(t, s.IntentsForDay(context.Background(), view), 1)
}

func TestSMACrossEntersOnCrossUp(t *testing.T) {
	t.Parallel()

	s := NewSMACross("ACME", 5, 2, 4)

	// Declining closes keep fast below slow, then a spike crosses it above.
	closes := []float64{110, 108, 106, 104, 102, 100, 120, 140}
	view := viewWithCloses("ACME", closes...)

	var intents []engine.Intent
	for day := 3; day < len(closes); day++ {
		view.day = day
		intents = s.IntentsForDay(context.Background(), view)
		if len(intents) > 0 {
			break
		}
	}

	require.Len(t, intents, 1)
	assert.Equal(t, ledger.Buy, intents[0].Side)
	assert.Equal(t, 5.0, intents[0].Quantity)
}

func TestSMACrossExitsOnCrossDown(t *testing.T) {
	t.Parallel()

	s := NewSMACross("ACME", 5, 2, 4)

	// Rising then collapsing: cross up, later cross down.
	closes := []float64{100, 102, 104, 106, 108, 110, 90, 70, 60}
	view := viewWithCloses("ACME", closes...)
	view.position = ledger.Position{Instrument: "ACME", Quantity: 5, AvgEntry: 100}

	var exit []engine.Intent
	for day := 3; day < len(closes); day++ {
		view.day = day
		intents := s.IntentsForDay(context.Background(), view)
		for _, in := range intents {
			if in.Side == ledger.Sell {
				exit = intents
			}
		}
		if exit != nil {
			break
		}
	}

	require.Len(t, exit, 1)
	assert.Equal(t, ledger.Sell, exit[0].Side)
	assert.Equal(t, 5.0, exit[0].Quantity) // closes the whole position
}

func TestSimpleLimitQuotesBothSides(t *testing.T) {
	t.Parallel()

	s := &SimpleLimit{Size: 2, SpreadPct: 0.5}
	view := viewWithCloses("ACME", 100, 102)

	intents := s.IntentsForDay(context.Background(), view)
	require.Len(t, intents, 2)

	buy, sell := intents[0], intents[1]
	assert.Equal(t, ledger.Buy, buy.Side)
	assert.Equal(t, engine.Limit, buy.Kind)
	assert.Equal(t, ledger.Sell, sell.Side)
	assert.Equal(t, engine.Limit, sell.Kind)

	// Yesterday's range is 2; half of the 0.5x spread on each side of the open.
	assert.InDelta(t, 102-0.5, buy.Limit, 1e-9)
	assert.InDelta(t, 102+0.5, sell.Limit, 1e-9)
}

func TestSimpleLimitFlattensOverInventory(t *testing.T) {
	t.Parallel()

	s := &SimpleLimit{Size: 2, InventoryLimit: 10}
	view := viewWithCloses("ACME", 100, 102)
	view.position = ledger.Position{Instrument: "ACME", Quantity: 15, AvgEntry: 100}

	intents := s.IntentsForDay(context.Background(), view)
	require.Len(t, intents, 1)
	assert.Equal(t, ledger.Sell, intents[0].Side)
	assert.Equal(t, engine.Market, intents[0].Kind)
	assert.Equal(t, 15.0, intents[0].Quantity)
}

func TestSimpleLimitNeedsHistory(t *testing.T) {
	t.Parallel()

	s := &SimpleLimit{Size: 2}
	view := viewWithCloses("ACME", 100) // first day: no yesterday
	assert.Empty(t, s.IntentsForDay(context.Background(), view))
}
