// Package analytics computes performance statistics over a finished
// equity curve and fill log. Everything is recomputed from scratch each
// call; a completed run's curve is always available, so there is nothing
// to cache or update incrementally.
package analytics

import (
	"math"

	"github.com/tradelab/harness/ledger"
)

// Options configures the analyzer.
type Options struct {
	// PeriodsPerYear is the annualization factor for the Sharpe ratio,
	// typically 252 for daily equity curves.
	PeriodsPerYear float64

	// StartingEquity is the account value before the first trading day.
	// When zero, the first curve point is used instead.
	StartingEquity float64
}

// Report is the analyzer's output. Sharpe and PDRatio are NaN when
// undefined (zero-variance returns, no drawdown).
type Report struct {
	Days        int
	Trades      int
	TotalPnL    float64
	MaxDrawdown float64 // fraction of peak equity, >= 0
	Sharpe      float64
	PDRatio     float64 // total PnL / absolute max drawdown
	ActivityPct float64 // % of days with any open position
}

// Analyze computes the full report for a finished run.
func Analyze(curve []ledger.EquityPoint, fills []ledger.Fill, opts Options) Report {
	rep := Report{
		Days:    len(curve),
		Trades:  len(fills),
		Sharpe:  math.NaN(),
		PDRatio: math.NaN(),
	}
	if len(curve) == 0 {
		return rep
	}

	initial := opts.StartingEquity
	if initial == 0 {
		initial = curve[0].Equity
	}
	rep.TotalPnL = curve[len(curve)-1].Equity - initial

	rep.MaxDrawdown = MaxDrawdown(curve)
	rep.Sharpe = Sharpe(curve, opts.PeriodsPerYear)

	if ddAbs := maxDrawdownAbs(curve); ddAbs > 0 {
		rep.PDRatio = rep.TotalPnL / ddAbs
	}

	rep.ActivityPct = activityPct(curve, fills)
	return rep
}

// MaxDrawdown returns the largest peak-to-trough equity decline as a
// nonnegative fraction of the peak. A monotonically non-decreasing curve
// has drawdown 0.
func MaxDrawdown(curve []ledger.EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// maxDrawdownAbs is the drawdown in account currency, used for the PD
// ratio.
func maxDrawdownAbs(curve []ledger.EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := peak - p.Equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Sharpe returns the annualized Sharpe ratio of the curve's daily
// returns: mean / sample standard deviation, scaled by
// sqrt(periodsPerYear). NaN when the return series has fewer than two
// points or zero variance; a flat curve has no defined Sharpe ratio.
func Sharpe(curve []ledger.EquityPoint, periodsPerYear float64) float64 {
	returns := dailyReturns(curve)
	if len(returns) < 2 {
		return math.NaN()
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	if variance == 0 {
		return math.NaN()
	}

	return mean / math.Sqrt(variance) * math.Sqrt(periodsPerYear)
}

func dailyReturns(curve []ledger.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, curve[i].Equity/prev-1)
	}
	return out
}

// activityPct replays the fill log day by day to reconstruct holdings and
// returns the percentage of days with any nonzero position.
func activityPct(curve []ledger.EquityPoint, fills []ledger.Fill) float64 {
	if len(curve) == 0 {
		return 0
	}

	positions := make(map[string]float64)
	active := 0
	next := 0

	for day := 0; day < len(curve); day++ {
		for next < len(fills) && fills[next].Day <= day {
			f := fills[next]
			positions[f.Instrument] += f.SignedQuantity()
			next++
		}
		for _, qty := range positions {
			if qty != 0 {
				active++
				break
			}
		}
	}

	return 100 * float64(active) / float64(len(curve))
}
