// Package journal persists the data products of a backtest run: the fill
// log and the daily equity curve. The core engine writes through the
// Journal interface; reporting reads the SQLite implementation back.
package journal

import "time"

// FillRecord is one executed order as stored by the journal.
type FillRecord struct {
	FillID     string
	RunID      string
	Instrument string
	Side       string // "BUY" or "SELL"
	Quantity   float64
	Price      float64
	Commission float64
	Day        int
	Date       time.Time
	CashDelta  float64
	Reason     string
}

// EquityRecord is one end-of-day equity sample.
type EquityRecord struct {
	RunID    string
	Day      int
	Date     time.Time
	Cash     float64
	Equity   float64
	Realized float64
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// Nop discards everything. Useful for tests and journal-less runs.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error     { return nil }
func (Nop) RecordEquity(EquityRecord) error { return nil }
func (Nop) Close() error                    { return nil }
