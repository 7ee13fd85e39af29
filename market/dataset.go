package market

import (
	"fmt"
	"sort"
	"time"
)

// AlignmentError reports instrument series that cannot form an aligned
// dataset. It is fatal at setup: a backtest never starts on misaligned data.
type AlignmentError struct {
	Instrument string
	Reason     string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("market: series %q misaligned: %s", e.Instrument, e.Reason)
}

// Dataset is a set of per-instrument daily series sharing one trading
// calendar. Bars are pre-aligned by date with no gaps; day index i refers
// to the same date across every instrument.
type Dataset struct {
	instruments []string
	series      map[string]*Series
	dates       []time.Time
}

// NewDataset validates that every series covers the same trading calendar
// and returns the aligned dataset. At least one non-empty series is
// required; all series must have the same length and identical dates.
func NewDataset(series ...*Series) (*Dataset, error) {
	if len(series) == 0 {
		return nil, &AlignmentError{Instrument: "", Reason: "no series supplied"}
	}

	ref := series[0]
	if ref.Len() == 0 {
		return nil, &AlignmentError{Instrument: ref.Instrument, Reason: "empty series"}
	}

	ds := &Dataset{
		series: make(map[string]*Series, len(series)),
		dates:  make([]time.Time, ref.Len()),
	}
	for i, b := range ref.Bars {
		ds.dates[i] = b.Date
	}

	for _, s := range series {
		if s.Len() != ref.Len() {
			return nil, &AlignmentError{
				Instrument: s.Instrument,
				Reason:     fmt.Sprintf("length %d, want %d", s.Len(), ref.Len()),
			}
		}
		for i, b := range s.Bars {
			if !b.Date.Equal(ds.dates[i]) {
				return nil, &AlignmentError{
					Instrument: s.Instrument,
					Reason: fmt.Sprintf("date mismatch at day %d: %s, want %s",
						i, b.Date.Format("2006-01-02"), ds.dates[i].Format("2006-01-02")),
				}
			}
		}
		if _, dup := ds.series[s.Instrument]; dup {
			return nil, &AlignmentError{Instrument: s.Instrument, Reason: "duplicate instrument"}
		}
		ds.series[s.Instrument] = s
		ds.instruments = append(ds.instruments, s.Instrument)
	}

	sort.Strings(ds.instruments)
	return ds, nil
}

// Len returns the number of trading days.
func (d *Dataset) Len() int { return len(d.dates) }

// Date returns the calendar date of the given day index.
func (d *Dataset) Date(day int) time.Time { return d.dates[day] }

// Instruments returns instrument ids in a stable (sorted) order.
func (d *Dataset) Instruments() []string { return d.instruments }

// Has reports whether the dataset contains the instrument.
func (d *Dataset) Has(instrument string) bool {
	_, ok := d.series[instrument]
	return ok
}

// Bar returns the bar for an instrument on the given day.
func (d *Dataset) Bar(instrument string, day int) (Bar, bool) {
	s, ok := d.series[instrument]
	if !ok || day < 0 || day >= s.Len() {
		return Bar{}, false
	}
	return s.Bars[day], true
}

// History returns the bars for an instrument up to and including day.
// The returned slice aliases the immutable series; callers must not
// modify it.
func (d *Dataset) History(instrument string, day int) []Bar {
	s, ok := d.series[instrument]
	if !ok {
		return nil
	}
	if day >= s.Len() {
		day = s.Len() - 1
	}
	return s.Bars[:day+1]
}

// Closes returns the closing price of every instrument on the given day,
// the mark prices used for equity recomputation.
func (d *Dataset) Closes(day int) map[string]float64 {
	marks := make(map[string]float64, len(d.series))
	for name, s := range d.series {
		marks[name] = s.Bars[day].Close
	}
	return marks
}
