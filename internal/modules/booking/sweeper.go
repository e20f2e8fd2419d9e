package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

const sweepBatch = 100

// RunExpirySweeper times out stale offers every SweepInterval until ctx ends.
func (s *Service) RunExpirySweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	log.Printf("[sweeper] started, interval %s", s.cfg.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sweeper] stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				log.Printf("[sweeper] sweep failed: %v", err)
			}
		}
	}
}

// SweepExpired times out every pending offer whose deadline has passed and
// reports how many bookings moved on. Bookings changed concurrently are left
// for the next tick.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "booking.SweepExpired")
	defer span.End()

	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx, s.cfg.SweepLease)
		if err != nil {
			log.Printf("[sweeper] lease unavailable, sweeping anyway: %v", err)
		} else if !ok {
			return 0, nil
		}
	}

	now := s.now()
	expired, err := s.store.FindExpiredAssignments(ctx, now, sweepBatch)
	if err != nil {
		return 0, err
	}
	advanced := 0
	for _, b := range expired {
		if err := b.Timeout(now, s.cfg.OfferTTL); err != nil {
			log.Printf("[sweeper] booking %s: timeout: %v", b.ID(), err)
			continue
		}
		if err := s.store.Save(ctx, b); err != nil {
			if !errors.Is(err, ErrConflict) {
				log.Printf("[sweeper] booking %s: %v", b.ID(), err)
			}
			continue
		}
		s.dispatch(ctx, b)
		advanced++
	}
	span.SetAttributes(attribute.Int("sweep.expired", len(expired)), attribute.Int("sweep.advanced", advanced))
	return advanced, nil
}
