package strategies

import (
	"context"

	"github.com/tradelab/harness/engine"
)

// Noop places no orders. Baseline for testing the harness itself.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) IntentsForDay(ctx context.Context, view MarketView) []engine.Intent {
	return nil
}
