package backtest

import (
	"github.com/tradelab/harness/analytics"
	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/ledger"
)

// Result summarizes a finished run.
type Result struct {
	RunID  string
	Status engine.RunStatus

	Days        int
	Overspends  int // days voided by the overspend guard
	FinalCash   float64
	FinalEquity float64

	Curve  []ledger.EquityPoint
	Fills  []ledger.Fill
	Report analytics.Report
}
