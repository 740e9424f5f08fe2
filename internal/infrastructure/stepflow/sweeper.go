package stepflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/closet-hub/closet-hub/internal/application/audit"
	"github.com/closet-hub/closet-hub/internal/domain/audit"
	"github.com/closet-hub/closet-hub/internal/domain/event"
)

// Metrics counts sweeper activity. A nil Metrics is a no-op.
type Metrics interface {
	ObserveExpiry()
}

// Sweeper periodically closes tokens whose review deadline has passed.
// The approval record itself is untouched; a decision arriving after
// the sweep still lands, it simply finds its token already closed.
type Sweeper struct {
	store    Store
	auditSvc *appAudit.Service
	bus      event.Bus
	metrics  Metrics
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a deadline sweeper. auditSvc, bus and metrics may
// be nil.
func NewSweeper(store Store, auditSvc *appAudit.Service, bus event.Bus, metrics Metrics, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		auditSvc: auditSvc,
		bus:      bus,
		metrics:  metrics,
		interval: interval,
		logger:   logger.With().Str("service", "sweeper").Logger(),
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep expires every execution past its deadline and records the
// timeout, best effort, in the audit trail and on the event bus.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.store.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("deadline sweep failed")
		return
	}
	for _, exec := range expired {
		if s.metrics != nil {
			s.metrics.ObserveExpiry()
		}
		s.logger.Info().
			Str("executionId", exec.ExecutionID).
			Str("recordId", exec.RecordID).
			Time("deadline", exec.Deadline).
			Msg("review deadline passed, token closed")

		if s.auditSvc != nil {
			detail := map[string]interface{}{
				"executionId": exec.ExecutionID,
				"deadline":    exec.Deadline,
			}
			if err := s.auditSvc.Append(ctx, exec.RecordID, audit.ActionReviewTimedOut, "system", detail); err != nil {
				s.logger.Error().Err(err).
					Str("recordId", exec.RecordID).
					Msg("audit append failed for timed out review")
			}
		}
		if s.bus != nil {
			ev := event.Event{
				Type:     event.TypeReviewTimedOut,
				RecordID: exec.RecordID,
			}
			if err := s.bus.Publish(ctx, ev); err != nil {
				s.logger.Error().Err(err).
					Str("recordId", exec.RecordID).
					Msg("event publish failed for timed out review")
			}
		}
	}
}
