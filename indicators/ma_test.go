package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradelab/harness/market"
)

func createTestBars() []market.Bar {
	return []market.Bar{
		{Open: 100, High: 105, Low: 99, Close: 102},
		{Open: 102, High: 107, Low: 101, Close: 105},
		{Open: 105, High: 108, Low: 104, Close: 106},
		{Open: 106, High: 110, Low: 105, Close: 108},
		{Open: 108, High: 112, Low: 107, Close: 110},
		{Open: 110, High: 113, Low: 109, Close: 111},
		{Open: 111, High: 115, Low: 110, Close: 113},
		{Open: 113, High: 116, Low: 112, Close: 114},
		{Open: 114, High: 118, Low: 113, Close: 116},
		{Open: 116, High: 120, Low: 115, Close: 118},
	}
}

func TestSMA(t *testing.T) {
	bars := createTestBars()

	sma, err := SMA(bars, 5)
	assert.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, sma, 0.001)
}

func TestSMAErrors(t *testing.T) {
	bars := createTestBars()

	_, err := SMA(bars, 0)
	assert.Error(t, err)

	_, err = SMA(bars, len(bars)+1)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	bars := createTestBars()

	ema, err := EMA(bars, 5)
	assert.NoError(t, err)
	assert.Greater(t, ema, 0.0)
}

func TestEMAConstantSeries(t *testing.T) {
	bars := make([]market.Bar, 8)
	for i := range bars {
		bars[i].Close = 42
	}

	ema, err := EMA(bars, 4)
	assert.NoError(t, err)
	assert.InDelta(t, 42, ema, 1e-9)
}

func TestEMAErrors(t *testing.T) {
	_, err := EMA(createTestBars(), 0)
	assert.Error(t, err)

	_, err = EMA(nil, 3)
	assert.Error(t, err)
}
