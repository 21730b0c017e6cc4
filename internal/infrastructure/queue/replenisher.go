package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/core/ports"
)

const defaultReplenishInterval = 15 * time.Minute

// stockKeeper is the slice of ports.WaybillService the replenisher needs.
type stockKeeper interface {
	EnsureMinimumStock(ctx context.Context, minStock int) (*ports.StockResult, error)
}

// Replenisher keeps the waybill pool above a floor on a fixed interval.
type Replenisher struct {
	pool     stockKeeper
	minStock int
	interval time.Duration
	log      zerolog.Logger
}

func NewReplenisher(pool stockKeeper, minStock int, interval time.Duration, log zerolog.Logger) *Replenisher {
	if interval <= 0 {
		interval = defaultReplenishInterval
	}
	return &Replenisher{pool: pool, minStock: minStock, interval: interval, log: log}
}

// Run checks the pool once immediately, then every interval until ctx is done.
func (r *Replenisher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Replenisher) tick(ctx context.Context) {
	if r.minStock <= 0 {
		return
	}
	res, err := r.pool.EnsureMinimumStock(ctx, r.minStock)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error().Err(err).Int("min_stock", r.minStock).Msg("waybill replenishment failed")
		}
		return
	}
	ev := r.log.Debug()
	if res.Generated != nil {
		ev = r.log.Info().Int("inserted", res.Generated.Inserted)
	}
	ev.Int64("available", res.Available).Bool("skipped", res.Skipped).Msg("waybill stock checked")
}
