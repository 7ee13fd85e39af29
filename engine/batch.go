package engine

import (
	"github.com/tradelab/harness/ledger"
	"github.com/tradelab/harness/market"
)

type limitKey struct {
	instrument string
	side       ledger.Side
}

// dayBatch stages one day's intents between collection and settlement.
// Nothing in a batch touches the ledger; the all-or-nothing guarantee is
// structural — a voided batch is simply dropped, no rollback needed.
type dayBatch struct {
	market   []Intent
	limit    []Intent
	rejected []RejectedIntent

	limitCount map[limitKey]int
}

func newDayBatch() *dayBatch {
	return &dayBatch{limitCount: make(map[limitKey]int)}
}

// stage validates one intent and either admits it to the batch or records
// it as rejected. Validation failures are local: they never affect the
// other intents in the batch.
func (b *dayBatch) stage(data *market.Dataset, in Intent) {
	if err := b.validate(data, in); err != nil {
		b.rejected = append(b.rejected, RejectedIntent{Intent: in, Err: err})
		return
	}

	if in.Kind == Limit {
		b.limitCount[limitKey{in.Instrument, in.Side}]++
		b.limit = append(b.limit, in)
		return
	}
	b.market = append(b.market, in)
}

func (b *dayBatch) validate(data *market.Dataset, in Intent) error {
	if in.Quantity <= 0 {
		return ErrBadQuantity
	}
	if !data.Has(in.Instrument) {
		return ErrUnknownInstrument
	}
	if in.Kind == Limit {
		if in.Limit <= 0 {
			return ErrBadLimitPrice
		}
		if b.limitCount[limitKey{in.Instrument, in.Side}] >= 1 {
			return ErrLimitCap
		}
	}
	return nil
}

func (b *dayBatch) empty() bool {
	return len(b.market) == 0 && len(b.limit) == 0
}
