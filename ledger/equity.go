package ledger

import "time"

// EquityPoint is one end-of-day sample of total account value. The
// recorder appends exactly one per trading day, strictly increasing by
// date, and never revises a sample after creation.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}
