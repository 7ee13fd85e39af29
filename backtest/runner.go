// Package backtest drives a strategy through the execution engine, one
// trading day at a time, and analyzes the finished run.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/tradelab/harness/analytics"
	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/ledger"
	"github.com/tradelab/harness/market"
	"github.com/tradelab/harness/strategies"
)

// Runner executes the sequential day loop:
//  1. ask the strategy for the day's order intents
//  2. hand the batch to the engine for settlement
//  3. pass the settlement result back to the strategy (if it observes)
//
// The loop stops early on bankruptcy; partial results are kept.
type Runner struct {
	Engine   *engine.Engine
	Data     *market.Dataset
	Strategy strategies.Strategy

	// PeriodsPerYear annualizes the Sharpe ratio; 252 when zero.
	PeriodsPerYear float64

	// StartingCash seeds the analyzer's total-PnL baseline.
	StartingCash float64
}

// Run executes the whole backtest. The context is checked between days;
// cancellation aborts with the context's error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Engine == nil {
		return Result{}, fmt.Errorf("backtest: Engine is required")
	}
	if r.Data == nil {
		return Result{}, fmt.Errorf("backtest: Data is required")
	}
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}

	observer, _ := r.Strategy.(strategies.SettlementObserver)
	overspends := 0

	for day := 0; day < r.Data.Len(); day++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		view := &dayView{engine: r.Engine, data: r.Data, day: day}
		intents := r.Strategy.IntentsForDay(ctx, view)

		res, err := r.Engine.RunDay(day, intents)
		if err != nil {
			return Result{}, fmt.Errorf("backtest: day %d: %w", day, err)
		}
		if res.Overspend {
			overspends++
		}
		if observer != nil {
			observer.OnSettlement(res)
		}
		if res.Halted {
			break
		}
	}

	curve := r.Engine.Curve()
	fills := r.Engine.Fills()

	periods := r.PeriodsPerYear
	if periods == 0 {
		periods = 252
	}

	result := Result{
		RunID:      r.Engine.RunID(),
		Status:     r.Engine.Status(),
		Days:       len(curve),
		Overspends: overspends,
		FinalCash:  r.Engine.Cash(),
		Curve:      curve,
		Fills:      fills,
		Report: analytics.Analyze(curve, fills, analytics.Options{
			PeriodsPerYear: periods,
			StartingEquity: r.StartingCash,
		}),
	}
	if len(curve) > 0 {
		result.FinalEquity = curve[len(curve)-1].Equity
	}
	return result, nil
}

// dayView adapts the engine and dataset into the read-only window a
// strategy sees for one day.
type dayView struct {
	engine *engine.Engine
	data   *market.Dataset
	day    int
}

func (v *dayView) Day() int              { return v.day }
func (v *dayView) Date() time.Time       { return v.data.Date(v.day) }
func (v *dayView) Instruments() []string { return v.data.Instruments() }

func (v *dayView) Bar(instrument string) (market.Bar, bool) {
	return v.data.Bar(instrument, v.day)
}

func (v *dayView) History(instrument string) []market.Bar {
	return v.data.History(instrument, v.day)
}

func (v *dayView) Cash() float64 { return v.engine.Cash() }

func (v *dayView) Position(instrument string) ledger.Position {
	return v.engine.Position(instrument)
}
