package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Column aliases accepted in dataset CSV headers (case-insensitive).
var columnAliases = map[string][]string{
	"date":   {"date", "datetime", "timestamp", "time", "index"},
	"open":   {"open", "o"},
	"high":   {"high", "h"},
	"low":    {"low", "l"},
	"close":  {"close", "adjclose", "adj_close", "c"},
	"volume": {"volume", "vol", "v", "turnover"},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

func findColumn(header []string, field string) int {
	for _, alias := range columnAliases[field] {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), alias) {
				return i
			}
		}
	}
	return -1
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// LoadCSV reads one instrument's daily OHLCV history from a CSV file.
// The header is required; columns are located by common aliases. Rows are
// sorted by date and de-duplicated (first occurrence wins). Volume may be
// missing and defaults to 0.
func LoadCSV(path, instrument string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("market: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("market: read %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("market: %s: no data rows", path)
	}

	header := rows[0]
	cDate := findColumn(header, "date")
	cOpen := findColumn(header, "open")
	cHigh := findColumn(header, "high")
	cLow := findColumn(header, "low")
	cClose := findColumn(header, "close")
	cVol := findColumn(header, "volume")

	var missing []string
	for name, idx := range map[string]int{
		"date": cDate, "open": cOpen, "high": cHigh, "low": cLow, "close": cClose,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("market: %s: missing columns %v (header %v)", path, missing, header)
	}

	required := cDate
	for _, idx := range []int{cOpen, cHigh, cLow, cClose} {
		if idx > required {
			required = idx
		}
	}

	bars := make([]Bar, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) <= required {
			return nil, fmt.Errorf("market: %s: short row on line %d (%d fields, need %d)",
				path, i+2, len(row), required+1)
		}
		date, err := parseDate(row[cDate])
		if err != nil {
			return nil, fmt.Errorf("market: %s: %w", path, err)
		}

		bar := Bar{Date: date}
		for _, fld := range []struct {
			idx int
			dst *float64
		}{
			{cOpen, &bar.Open}, {cHigh, &bar.High}, {cLow, &bar.Low}, {cClose, &bar.Close},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[fld.idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("market: %s: bad value %q on %s", path, row[fld.idx], date.Format("2006-01-02"))
			}
			*fld.dst = v
		}
		if cVol >= 0 && cVol < len(row) && strings.TrimSpace(row[cVol]) != "" {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[cVol]), 64); err == nil {
				bar.Volume = v
			}
		}

		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	deduped := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if n := len(deduped); n > 0 && b.Date.Equal(deduped[n-1].Date) {
			continue
		}
		deduped = append(deduped, b)
	}

	if len(deduped) == 0 {
		return nil, fmt.Errorf("market: %s: no valid bars", path)
	}

	return &Series{Instrument: instrument, Bars: deduped}, nil
}

// LoadDir loads every *.csv file in dir as one instrument each, named after
// the file (without extension), and returns the aligned dataset.
func LoadDir(dir string) (*Dataset, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("market: glob %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("market: no CSV files in %s", dir)
	}
	sort.Strings(paths)

	series := make([]*Series, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		s, err := LoadCSV(p, name)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}

	return NewDataset(series...)
}
