package deposits

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Refresher periodically refetches the deposit list so the console converges
// with the backend between operator actions
type Refresher struct {
	reconciler *Reconciler
	interval   time.Duration
}

func NewRefresher(reconciler *Reconciler, interval time.Duration) *Refresher {
	return &Refresher{
		reconciler: reconciler,
		interval:   interval,
	}
}

// Start begins the refresh loop
func (r *Refresher) Start(ctx context.Context) {
	logger := log.With().Str("component", "deposit_refresher").Logger()
	logger.Info().Dur("interval", r.interval).Msg("starting deposit refresher")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down deposit refresher")
			return
		case <-ticker.C:
			if err := r.reconciler.Reload(ctx); err != nil {
				if errors.Is(err, ErrActionInFlight) {
					// An operator action holds the slot, try again next tick
					logger.Debug().Msg("skipping refresh, action in flight")
					continue
				}
				logger.Error().Err(err).Msg("failed to refresh deposit list")
			}
		}
	}
}
