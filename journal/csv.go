package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV writes fills and equity samples to two flat files, flushed per
// record so partial runs remain inspectable.
type CSV struct {
	fills  *csv.Writer
	equity *csv.Writer
	ff, ef *os.File
}

func NewCSV(fillsPath, equityPath string) (*CSV, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	ew := csv.NewWriter(ef)

	closeBoth := func(err error) error {
		ff.Close()
		ef.Close()
		return err
	}

	if err := fw.Write([]string{"fill_id", "run_id", "instrument", "side", "quantity", "price", "commission", "day", "date", "cash_delta", "reason"}); err != nil {
		return nil, closeBoth(err)
	}
	if err := ew.Write([]string{"run_id", "day", "date", "cash", "equity", "realized"}); err != nil {
		return nil, closeBoth(err)
	}
	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, closeBoth(err)
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, closeBoth(err)
	}

	return &CSV{fills: fw, equity: ew, ff: ff, ef: ef}, nil
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (j *CSV) RecordFill(rec FillRecord) error {
	err := j.fills.Write([]string{
		rec.FillID,
		rec.RunID,
		rec.Instrument,
		rec.Side,
		f(rec.Quantity),
		f(rec.Price),
		f(rec.Commission),
		strconv.Itoa(rec.Day),
		rec.Date.Format(time.RFC3339),
		f(rec.CashDelta),
		rec.Reason,
	})
	if err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSV) RecordEquity(rec EquityRecord) error {
	err := j.equity.Write([]string{
		rec.RunID,
		strconv.Itoa(rec.Day),
		rec.Date.Format(time.RFC3339),
		f(rec.Cash),
		f(rec.Equity),
		f(rec.Realized),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.fills.Flush()
	j.equity.Flush()
	if err := j.ff.Close(); err != nil {
		j.ef.Close()
		return err
	}
	return j.ef.Close()
}
