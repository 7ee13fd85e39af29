package market

import "time"

// Bar is one daily OHLCV record for an instrument.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the full daily history for one instrument.
// It is immutable once loaded; the engine and strategies only read it.
type Series struct {
	Instrument string
	Bars       []Bar
}

// Len returns the number of trading days in the series.
func (s *Series) Len() int { return len(s.Bars) }

// Bar returns the bar for the given day index.
func (s *Series) Bar(day int) Bar { return s.Bars[day] }
