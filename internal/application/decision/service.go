package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/closet-hub/closet-hub/internal/domain/approval"
	"github.com/closet-hub/closet-hub/internal/domain/audit"
	"github.com/closet-hub/closet-hub/internal/domain/event"
	"github.com/closet-hub/closet-hub/internal/domain/workflow"
)

// Metrics receives decision observations. Implementations live in
// infrastructure; a nil Metrics is a no-op.
type Metrics interface {
	ObserveDecision(outcome approval.Status, latency time.Duration)
}

// Service resolves admin decisions on pending approval records. Each
// call is a stateless invocation: the current record is re-read on
// every request and the store's compare-and-swap write is the only
// synchronization point.
type Service struct {
	records approval.Repository
	engine  workflow.Engine
	effects *Dispatcher
	metrics Metrics
	logger  zerolog.Logger
}

// NewService creates a decision service.
func NewService(records approval.Repository, engine workflow.Engine, effects *Dispatcher, metrics Metrics, logger zerolog.Logger) *Service {
	return &Service{
		records: records,
		engine:  engine,
		effects: effects,
		metrics: metrics,
		logger:  logger.With().Str("service", "decision").Logger(),
	}
}

// Result is the observable outcome of a resolve call.
type Result struct {
	OK                  bool            `json:"ok"`
	Idempotent          bool            `json:"idempotent,omitempty"`
	ID                  string          `json:"id"`
	Status              approval.Status `json:"status,omitempty"`
	ResolutionSucceeded *bool           `json:"resolutionSucceeded,omitempty"`
}

// checkPending reads the current record and decides whether a decision
// may proceed. A record that already left PENDING is reported as
// AlreadyResolvedError, which callers treat as a successful replay. A
// pending record without a continuation token is a setup defect, not a
// race: the suspended execution was never registered.
func (s *Service) checkPending(ctx context.Context, id string) (*approval.Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Resolved() {
		return nil, &approval.AlreadyResolvedError{RecordID: id, Status: rec.Status}
	}
	if rec.ContinuationToken == nil || *rec.ContinuationToken == "" {
		return nil, approval.ErrMissingContinuation
	}
	return rec, nil
}

// Resolve validates a decision, resumes the suspended execution, applies
// the conditional status transition, and dispatches side effects. The
// ordering is load-bearing: resume before persist, persist before side
// effects. The durable status transition must happen even when the
// engine cannot be reached, because the human decision is the source of
// truth.
func (s *Service) Resolve(ctx context.Context, id string, dec approval.Decision, reason, actor string) (*Result, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	if _, err := approval.ParseDecision(string(dec)); err != nil {
		return nil, err
	}

	rec, err := s.checkPending(ctx, id)
	if err != nil {
		var resolved *approval.AlreadyResolvedError
		if errors.As(err, &resolved) {
			s.logger.Info().Str("recordId", id).Str("status", string(resolved.Status)).Msg("decision replayed on resolved record")
			return &Result{OK: true, Idempotent: true, ID: id, Status: resolved.Status}, nil
		}
		if errors.Is(err, approval.ErrMissingContinuation) {
			s.logger.Error().Str("recordId", id).Msg("pending record has no continuation token; review was never registered")
		}
		return nil, err
	}

	newStatus := approval.StatusFor(dec)
	if reason == "" {
		reason = approval.DefaultReason(dec)
	}
	now := time.Now().UTC()

	// Resume first, persist second.
	resolutionSucceeded := true
	resumeErr := s.engine.Resume(ctx, *rec.ContinuationToken, workflow.ResumePayload{
		Decision: string(dec),
		Reason:   reason,
	})
	if resumeErr != nil {
		resolutionSucceeded = false
		detail := map[string]interface{}{
			"decision": dec,
			"reason":   reason,
			"at":       now,
			"error":    resumeErr.Error(),
		}
		if errors.Is(resumeErr, workflow.ErrTokenClosed) {
			// A human decision may legitimately race a timeout path
			// that already resumed the execution.
			s.logger.Warn().Str("recordId", id).Msg("continuation token already closed; continuing")
			s.effects.AppendAudit(ctx, id, audit.ActionTokenAlreadyClosed, actor, detail)
		} else {
			s.logger.Error().Err(resumeErr).Str("recordId", id).Msg("engine resume failed; continuing")
			s.effects.AppendAudit(ctx, id, audit.ActionEngineError, actor, detail)
		}
	}

	applied, err := s.records.TransitionIfPending(ctx, id, approval.Transition{
		Status:              newStatus,
		Decision:            dec,
		Reason:              reason,
		DecidedAt:           now,
		ResolutionSucceeded: resolutionSucceeded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transition record %s: %w", id, err)
	}
	if !applied {
		// Another concurrent decision won the race; the desired outcome
		// (record resolved) is already satisfied.
		s.logger.Info().Str("recordId", id).Msg("transition condition failed; concurrent decision won")
		res := &Result{OK: true, Idempotent: true, ID: id}
		if current, err := s.records.GetByID(ctx, id); err == nil {
			res.Status = current.Status
		}
		return res, nil
	}

	if s.metrics != nil {
		s.metrics.ObserveDecision(newStatus, now.Sub(rec.RequestedAt))
	}

	detail := map[string]interface{}{
		"decision":            dec,
		"reason":              reason,
		"decidedAt":           now,
		"resolutionSucceeded": resolutionSucceeded,
	}
	s.effects.AppendAudit(ctx, id, audit.ActionDecisionRecorded, actor, detail)

	evType := event.TypeItemApproved
	if newStatus == approval.StatusRejected {
		evType = event.TypeItemRejected
	}
	s.effects.EmitEvent(ctx, event.Event{
		Type:                evType,
		RecordID:            id,
		Decision:            string(dec),
		Reason:              reason,
		DecidedAt:           now,
		ResolutionSucceeded: &resolutionSucceeded,
	})

	s.effects.Notify(ctx, "Closet approval decision", fmt.Sprintf("%s for %s", dec, id), detail)

	return &Result{
		OK:                  true,
		ID:                  id,
		Status:              newStatus,
		ResolutionSucceeded: &resolutionSucceeded,
	}, nil
}

// Get retrieves an approval record.
func (s *Service) Get(ctx context.Context, id string) (*approval.Record, error) {
	return s.records.GetByID(ctx, id)
}

// List returns approval records.
func (s *Service) List(ctx context.Context, filter approval.Filter, limit, offset int) ([]*approval.Record, error) {
	return s.records.List(ctx, filter, limit, offset)
}
