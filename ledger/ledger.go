package ledger

import (
	"math"
	"time"
)

// Side: +1 buy, -1 sell.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Position is the account's holding in one instrument: signed quantity
// (positive long, negative short) and the average entry price of the open
// quantity. Mutated only through Ledger.Apply.
type Position struct {
	Instrument string
	Quantity   float64
	AvgEntry   float64
}

// Fill is one executed order. Fills are append-only; the analyzer and the
// journal consume them after settlement.
type Fill struct {
	ID         string
	Instrument string
	Side       Side
	Quantity   float64 // always positive; Side encodes direction
	Price      float64 // executed price, post-slippage
	Commission float64
	Day        int
	Date       time.Time
	CashDelta  float64 // signed change to cash, commission included
	Reason     string  // "", "liquidation", "bankruptcy"
}

// SignedQuantity returns the position delta the fill applies.
func (f Fill) SignedQuantity() float64 {
	return float64(f.Side) * f.Quantity
}

// Ledger holds cash, per-instrument positions, and cumulative realized
// PnL for one backtest run. It is owned exclusively by the execution
// engine; everything else reads snapshots taken after settlement.
type Ledger struct {
	cash      float64
	positions map[string]*Position
	realized  float64
	fills     []Fill
}

// New returns a ledger holding only starting cash.
func New(startingCash float64) *Ledger {
	return &Ledger{
		cash:      startingCash,
		positions: make(map[string]*Position),
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// RealizedPnL returns cumulative realized profit and loss.
func (l *Ledger) RealizedPnL() float64 { return l.realized }

// Position returns the position for an instrument. A flat, never-traded
// instrument yields a zero-quantity position.
func (l *Ledger) Position(instrument string) Position {
	if p, ok := l.positions[instrument]; ok {
		return *p
	}
	return Position{Instrument: instrument}
}

// Positions returns a snapshot of all nonzero positions.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		if p.Quantity != 0 {
			out = append(out, *p)
		}
	}
	return out
}

// Fills returns the append-only fill log.
func (l *Ledger) Fills() []Fill { return l.fills }

// Apply commits one fill: cash and position move together, atomically from
// the caller's point of view. Reducing or flipping a position realizes PnL
// against the average entry price.
func (l *Ledger) Apply(f Fill) {
	delta := f.SignedQuantity()

	p, ok := l.positions[f.Instrument]
	if !ok {
		p = &Position{Instrument: f.Instrument}
		l.positions[f.Instrument] = p
	}

	switch {
	case p.Quantity == 0 || sameSign(p.Quantity, delta):
		// Opening or adding: average entry over the combined quantity.
		total := p.Quantity + delta
		p.AvgEntry = (p.AvgEntry*math.Abs(p.Quantity) + f.Price*math.Abs(delta)) / math.Abs(total)
		p.Quantity = total

	case math.Abs(delta) <= math.Abs(p.Quantity):
		// Reducing (possibly to flat): realize against average entry.
		closed := math.Abs(delta)
		l.realized += pnlOnClose(p.Quantity, p.AvgEntry, f.Price, closed)
		p.Quantity += delta
		if p.Quantity == 0 {
			p.AvgEntry = 0
		}

	default:
		// Flipping through flat: close the whole position, open the rest.
		closed := math.Abs(p.Quantity)
		l.realized += pnlOnClose(p.Quantity, p.AvgEntry, f.Price, closed)
		p.Quantity += delta
		p.AvgEntry = f.Price
	}

	l.realized -= f.Commission
	l.cash += f.CashDelta
	l.fills = append(l.fills, f)
}

// Equity recomputes total account value from scratch: cash plus the
// mark-to-market value of every position at the given marks. Short
// positions are liabilities. Recomputing (rather than drifting a running
// total) keeps floating-point error from accumulating across days.
func (l *Ledger) Equity(marks map[string]float64) float64 {
	equity := l.cash
	for name, p := range l.positions {
		if p.Quantity == 0 {
			continue
		}
		equity += p.Quantity * marks[name]
	}
	return equity
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// pnlOnClose realizes PnL for closing `closed` units of a position with
// the given signed quantity and average entry, at the exit price.
func pnlOnClose(qty, avgEntry, exit, closed float64) float64 {
	side := 1.0
	if qty < 0 {
		side = -1.0
	}
	return side * (exit - avgEntry) * closed
}
