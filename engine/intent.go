package engine

import (
	"errors"
	"time"

	"github.com/tradelab/harness/ledger"
)

// OrderKind selects market or limit execution.
type OrderKind int8

const (
	Market OrderKind = iota
	Limit
)

func (k OrderKind) String() string {
	if k == Limit {
		return "LIMIT"
	}
	return "MARKET"
}

// Intent is one order a strategy wants executed today. Quantity is a
// positive magnitude; Side encodes direction. Limit is only meaningful
// for Kind == Limit. Intents are consumed within the day they are placed
// and never persisted beyond settlement.
type Intent struct {
	Instrument string
	Side       ledger.Side
	Kind       OrderKind
	Quantity   float64
	Limit      float64
}

// Malformed-order errors. Each excludes only the offending intent from
// the day's batch; the rest of the batch still faces the overspend check.
var (
	ErrBadQuantity       = errors.New("engine: quantity must be positive")
	ErrUnknownInstrument = errors.New("engine: unknown instrument")
	ErrBadLimitPrice     = errors.New("engine: limit price must be positive")
	ErrLimitCap          = errors.New("engine: limit order cap reached (one per instrument per side per day)")
)

// ErrHalted is returned by RunDay once the run has stopped (bankruptcy).
var ErrHalted = errors.New("engine: run halted")

// RejectedIntent pairs a dropped intent with the validation error that
// excluded it.
type RejectedIntent struct {
	Intent Intent
	Err    error
}

// RunStatus is the terminal state of a backtest run.
type RunStatus int8

const (
	StatusRunning RunStatus = iota
	StatusCompleted
	StatusBankrupt
)

func (s RunStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusBankrupt:
		return "bankrupt"
	default:
		return "running"
	}
}

// DayResult is the settlement outcome of one trading day, returned to the
// driving loop and observable by the strategy.
type DayResult struct {
	Day      int
	Date     time.Time
	Fills    []ledger.Fill
	Rejected []RejectedIntent

	// Overspend reports that the entire batch was voided by the
	// overspend guard: zero fills, cash unchanged. Recoverable; the run
	// continues the next day.
	Overspend bool

	Cash   float64
	Equity float64

	// Halted reports bankruptcy: no further days will be processed.
	Halted bool
}
