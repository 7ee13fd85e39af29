package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/market"
	"github.com/tradelab/harness/strategies"
)

func testData(t *testing.T, instrument string, ohlc ...[4]float64) *market.Dataset {
	t.Helper()

	bars := make([]market.Bar, len(ohlc))
	for i, r := range ohlc {
		bars[i] = market.Bar{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:  r[0],
			High:  r[1],
			Low:   r[2],
			Close: r[3],
		}
	}

	ds, err := market.NewDataset(&market.Series{Instrument: instrument, Bars: bars})
	require.NoError(t, err)
	return ds
}

func TestRunnerNoopRun(t *testing.T) {
	t.Parallel()

	data := testData(t, "ACME",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 101},
		[4]float64{101, 102, 100, 102},
	)
	eng := engine.New(data, engine.Config{StartingCash: 1_000}, nil, nil)

	r := &Runner{Engine: eng, Data: data, Strategy: strategies.Noop{}, StartingCash: 1_000}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, engine.StatusCompleted, res.Status)
	assert.Equal(t, 3, res.Days)
	assert.Equal(t, 0, res.Overspends)
	assert.Empty(t, res.Fills)
	assert.InDelta(t, 1_000, res.FinalEquity, 1e-9)
	assert.InDelta(t, 0, res.Report.TotalPnL, 1e-9)
	assert.InDelta(t, 0, res.Report.ActivityPct, 1e-9)
}

func TestRunnerBuyAndHoldLiquidatesAtEnd(t *testing.T) {
	t.Parallel()

	data := testData(t, "ACME",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99, 105},
		[4]float64{105, 111, 104, 110},
	)
	eng := engine.New(data, engine.Config{
		StartingCash:   10_000,
		LiquidateAtEnd: true,
	}, nil, nil)

	r := &Runner{
		Engine:       eng,
		Data:         data,
		Strategy:     &strategies.BuyAndHold{Size: 10},
		StartingCash: 10_000,
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, engine.StatusCompleted, res.Status)
	// Entry on day 0 plus the forced exit on day 2.
	require.Len(t, res.Fills, 2)
	assert.Equal(t, "liquidation", res.Fills[1].Reason)
	assert.Empty(t, eng.Positions())

	// Bought 10 @ 100, liquidated @ 110: flat book, all value in cash.
	assert.InDelta(t, res.FinalCash, res.FinalEquity, 1e-9)
	assert.InDelta(t, 100, res.Report.TotalPnL, 1e-9)
	// Held at the close of days 0 and 1; flat again after the final-day exit.
	assert.InDelta(t, 200.0/3, res.Report.ActivityPct, 1e-9)
}

func TestRunnerStopsOnBankruptcy(t *testing.T) {
	t.Parallel()

	data := testData(t, "ACME",
		[4]float64{10, 11, 9, 10},
		[4]float64{8, 8, 3, 4},
		[4]float64{4, 5, 3, 4},
		[4]float64{4, 5, 3, 4},
	)
	eng := engine.New(data, engine.Config{
		StartingCash:    100,
		BankruptcyFloor: 50,
	}, nil, nil)

	r := &Runner{
		Engine:       eng,
		Data:         data,
		Strategy:     &strategies.BuyAndHold{Size: 10},
		StartingCash: 100,
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, engine.StatusBankrupt, res.Status)
	// Halted after day 1; days 2-3 never ran.
	assert.Equal(t, 2, res.Days)
	assert.Len(t, res.Curve, 2)
}

func TestRunnerObserverSeesEveryDay(t *testing.T) {
	t.Parallel()

	data := testData(t, "ACME",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 101},
	)
	eng := engine.New(data, engine.Config{StartingCash: 1_000}, nil, nil)

	obs := &observingStrategy{}
	r := &Runner{Engine: eng, Data: data, Strategy: obs, StartingCash: 1_000}
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, obs.settlements, 2)
	assert.Equal(t, 0, obs.settlements[0].Day)
	assert.Equal(t, 1, obs.settlements[1].Day)
}

func TestRunnerContextCancel(t *testing.T) {
	t.Parallel()

	data := testData(t, "ACME", [4]float64{100, 101, 99, 100})
	eng := engine.New(data, engine.Config{StartingCash: 1_000}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Engine: eng, Data: data, Strategy: strategies.Noop{}, StartingCash: 1_000}
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerRequiresWiring(t *testing.T) {
	t.Parallel()

	data := testData(t, "ACME", [4]float64{100, 101, 99, 100})
	eng := engine.New(data, engine.Config{StartingCash: 1_000}, nil, nil)

	for _, r := range []*Runner{
		{Data: data, Strategy: strategies.Noop{}},
		{Engine: eng, Strategy: strategies.Noop{}},
		{Engine: eng, Data: data},
	} {
		_, err := r.Run(context.Background())
		assert.Error(t, err)
	}
}

// observingStrategy records the settlement results it is shown.
type observingStrategy struct {
	settlements []engine.DayResult
}

func (s *observingStrategy) Name() string { return "observer" }

func (s *observingStrategy) IntentsForDay(ctx context.Context, view strategies.MarketView) []engine.Intent {
	return nil
}

func (s *observingStrategy) OnSettlement(res engine.DayResult) {
	s.settlements = append(s.settlements, res)
}
