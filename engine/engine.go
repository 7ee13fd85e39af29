// Package engine enforces the harness trading rules: gap slippage on
// market orders, an all-or-nothing batch overspend guard, day-order limit
// handling, forced final-day liquidation, and the bankruptcy halt.
//
// The engine owns the ledger. Each simulated day runs the
// collect -> validate -> settle -> done sequence to completion before the
// next day begins; nothing settles until every order of the day has been
// seen.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/harness/internal/id"
	"github.com/tradelab/harness/journal"
	"github.com/tradelab/harness/ledger"
	"github.com/tradelab/harness/market"
)

// Config carries every account-level policy the engine enforces. There is
// no ambient/global configuration; a Config is passed at construction.
type Config struct {
	StartingCash    float64
	Commission      float64 // rate on traded notional, e.g. 0.001
	GapThreshold    float64 // gap fraction below which no slippage applies
	SlippageMult    float64 // fraction of the gap charged against the trader
	BankruptcyFloor float64 // equity at or below this halts the run
	LiquidateAtEnd  bool    // flatten all positions on the final day
}

// Engine runs the per-day rule enforcement state machine over an aligned
// dataset. It is single-threaded: RunDay must be called with consecutive
// day indexes, one at a time.
type Engine struct {
	cfg  Config
	data *market.Dataset
	led  *ledger.Ledger
	slip GapSlippage
	jour journal.Journal
	log  *zap.Logger

	runID   string
	nextDay int
	curve   []ledger.EquityPoint
	status  RunStatus
}

// New constructs an engine over the dataset. A nil journal records
// nothing; a nil logger is silent.
func New(data *market.Dataset, cfg Config, jour journal.Journal, log *zap.Logger) *Engine {
	if jour == nil {
		jour = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:   cfg,
		data:  data,
		led:   ledger.New(cfg.StartingCash),
		slip:  GapSlippage{Threshold: cfg.GapThreshold, Mult: cfg.SlippageMult},
		jour:  jour,
		log:   log,
		runID: id.New(),
	}
}

// RunID identifies this run in the journal.
func (e *Engine) RunID() string { return e.runID }

// Status returns the run's current terminal state.
func (e *Engine) Status() RunStatus { return e.status }

// Cash returns the post-settlement cash balance.
func (e *Engine) Cash() float64 { return e.led.Cash() }

// Position returns the current position snapshot for an instrument.
func (e *Engine) Position(instrument string) ledger.Position {
	return e.led.Position(instrument)
}

// Positions returns all nonzero position snapshots.
func (e *Engine) Positions() []ledger.Position { return e.led.Positions() }

// Fills returns the full append-only fill log.
func (e *Engine) Fills() []ledger.Fill { return e.led.Fills() }

// Curve returns the recorded equity curve, one point per settled day.
func (e *Engine) Curve() []ledger.EquityPoint { return e.curve }

// RunDay settles one trading day's order batch and returns the result.
// Days must be processed in order, starting at 0. Once the run has halted
// (bankruptcy) every further call fails with ErrHalted.
func (e *Engine) RunDay(day int, intents []Intent) (DayResult, error) {
	if e.status == StatusBankrupt {
		return DayResult{}, ErrHalted
	}
	if day != e.nextDay {
		return DayResult{}, fmt.Errorf("engine: day %d out of order, want %d", day, e.nextDay)
	}
	if day >= e.data.Len() {
		return DayResult{}, fmt.Errorf("engine: day %d beyond dataset (%d days)", day, e.data.Len())
	}
	e.nextDay++

	date := e.data.Date(day)
	res := DayResult{Day: day, Date: date}

	// COLLECTING: stage the batch. Malformed intents drop out one by one.
	batch := newDayBatch()
	for _, in := range intents {
		batch.stage(e.data, in)
	}
	res.Rejected = batch.rejected
	for _, rej := range batch.rejected {
		e.log.Warn("order rejected",
			zap.Int("day", day),
			zap.String("instrument", rej.Intent.Instrument),
			zap.String("kind", rej.Intent.Kind.String()),
			zap.Error(rej.Err),
		)
	}

	// VALIDATING: the overspend guard sees the whole batch before
	// anything settles. One unaffordable sibling voids every order.
	fillsBefore := len(e.led.Fills())
	if !batch.empty() {
		required := e.requiredCash(batch, day)
		if required > e.led.Cash() {
			res.Overspend = true
			e.log.Info("overspend rejection: day batch voided",
				zap.Int("day", day),
				zap.Float64("required", required),
				zap.Float64("cash", e.led.Cash()),
				zap.Int("orders", len(batch.market)+len(batch.limit)),
			)
		} else {
			// SETTLING: markets fill at the slipped open, limits fill at
			// their price when the day's range touches it.
			e.settle(batch, day, date)
		}
	}

	// Final-day liquidation happens before the final equity sample and
	// bypasses the overspend guard.
	if e.cfg.LiquidateAtEnd && day == e.data.Len()-1 {
		e.liquidate(day, date, "liquidation")
	}

	// DONE: recompute equity from scratch and check for bankruptcy.
	equity := e.led.Equity(e.data.Closes(day))
	if equity <= e.cfg.BankruptcyFloor {
		e.liquidate(day, date, "bankruptcy")
		equity = e.led.Equity(e.data.Closes(day))
		e.status = StatusBankrupt
		res.Halted = true
		e.log.Warn("bankruptcy halt",
			zap.Int("day", day),
			zap.Float64("equity", equity),
			zap.Float64("floor", e.cfg.BankruptcyFloor),
		)
	} else if day == e.data.Len()-1 {
		e.status = StatusCompleted
	}

	res.Fills = e.led.Fills()[fillsBefore:]
	res.Cash = e.led.Cash()
	res.Equity = equity

	e.recordEquity(day, date, equity)
	return res, nil
}

// refPrice is the prior reference for a day-open market fill: yesterday's
// close, or today's open on the first day (no gap detectable).
func (e *Engine) refPrice(instrument string, day int) float64 {
	if day > 0 {
		bar, _ := e.data.Bar(instrument, day-1)
		return bar.Close
	}
	bar, _ := e.data.Bar(instrument, day)
	return bar.Open
}

// requiredCash estimates the worst-case net cash the batch needs: market
// buys at the slippage-adjusted open, limit buys at their limit price
// (worst case: they fill), market sells credited at the slipped open,
// limit sells credited nothing (worst case: never touched). Commission is
// charged on every estimated fill.
func (e *Engine) requiredCash(b *dayBatch, day int) float64 {
	var required float64

	for _, in := range b.market {
		bar, _ := e.data.Bar(in.Instrument, day)
		px := e.slip.FillPrice(in.Side, bar.Open, e.refPrice(in.Instrument, day))
		notional := px * in.Quantity
		comm := e.cfg.Commission * notional
		if in.Side == ledger.Buy {
			required += notional + comm
		} else {
			required -= notional - comm
		}
	}

	for _, in := range b.limit {
		if in.Side != ledger.Buy {
			continue
		}
		notional := in.Limit * in.Quantity
		required += notional + e.cfg.Commission*notional
	}

	return required
}

func (e *Engine) settle(b *dayBatch, day int, date time.Time) {
	for _, in := range b.market {
		bar, _ := e.data.Bar(in.Instrument, day)
		px := e.slip.FillPrice(in.Side, bar.Open, e.refPrice(in.Instrument, day))
		e.fill(in.Instrument, in.Side, in.Quantity, px, day, date, "")
	}

	for _, in := range b.limit {
		bar, _ := e.data.Bar(in.Instrument, day)
		touched := (in.Side == ledger.Buy && bar.Low <= in.Limit) ||
			(in.Side == ledger.Sell && bar.High >= in.Limit)
		if !touched {
			// Day order: dropped, never carried to following days.
			e.log.Debug("limit order expired untouched",
				zap.Int("day", day),
				zap.String("instrument", in.Instrument),
				zap.Float64("limit", in.Limit),
			)
			continue
		}
		e.fill(in.Instrument, in.Side, in.Quantity, in.Limit, day, date, "")
	}
}

// liquidate flattens every nonzero position with synthesized market
// orders at the day's close, slippage applied against the day's open.
// No overspend guard: liquidation only reduces exposure.
func (e *Engine) liquidate(day int, date time.Time, reason string) {
	for _, pos := range e.led.Positions() {
		side := ledger.Sell
		if pos.Quantity < 0 {
			side = ledger.Buy
		}
		qty := pos.Quantity
		if qty < 0 {
			qty = -qty
		}

		bar, _ := e.data.Bar(pos.Instrument, day)
		px := e.slip.FillPrice(side, bar.Close, bar.Open)
		e.fill(pos.Instrument, side, qty, px, day, date, reason)
	}
}

// fill commits one executed order: ledger mutation and journal append
// move together.
func (e *Engine) fill(instrument string, side ledger.Side, qty, px float64, day int, date time.Time, reason string) {
	notional := px * qty
	comm := e.cfg.Commission * notional

	f := ledger.Fill{
		ID:         id.New(),
		Instrument: instrument,
		Side:       side,
		Quantity:   qty,
		Price:      px,
		Commission: comm,
		Day:        day,
		Date:       date,
		CashDelta:  -float64(side)*notional - comm,
		Reason:     reason,
	}
	e.led.Apply(f)

	if err := e.jour.RecordFill(journal.FillRecord{
		FillID:     f.ID,
		RunID:      e.runID,
		Instrument: f.Instrument,
		Side:       f.Side.String(),
		Quantity:   f.Quantity,
		Price:      f.Price,
		Commission: f.Commission,
		Day:        f.Day,
		Date:       f.Date,
		CashDelta:  f.CashDelta,
		Reason:     f.Reason,
	}); err != nil {
		e.log.Error("journal fill", zap.Error(err))
	}

	e.log.Debug("fill",
		zap.Int("day", day),
		zap.String("instrument", instrument),
		zap.String("side", side.String()),
		zap.Float64("quantity", qty),
		zap.Float64("price", px),
		zap.String("reason", reason),
	)
}

// recordEquity appends the day's sample to the in-memory curve and the
// journal. Exactly one sample per day, never revised.
func (e *Engine) recordEquity(day int, date time.Time, equity float64) {
	e.curve = append(e.curve, ledger.EquityPoint{Date: date, Equity: equity})

	if err := e.jour.RecordEquity(journal.EquityRecord{
		RunID:    e.runID,
		Day:      day,
		Date:     date,
		Cash:     e.led.Cash(),
		Equity:   equity,
		Realized: e.led.RealizedPnL(),
	}); err != nil {
		e.log.Error("journal equity", zap.Error(err))
	}
}
