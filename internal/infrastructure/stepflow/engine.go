// Package stepflow is a small durable-execution engine backed by
// Postgres. A started execution immediately suspends waiting for a
// human decision; the suspension is represented by a single-use
// continuation token written onto the approval record. Tokens close
// exactly once, either when Resume consumes them or when the deadline
// sweeper expires them.
package stepflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/closet-hub/closet-hub/internal/domain/approval"
	"github.com/closet-hub/closet-hub/internal/domain/rule"
	"github.com/closet-hub/closet-hub/internal/domain/workflow"
)

// Execution statuses.
const (
	StatusWaiting  = "WAITING"
	StatusResumed  = "RESUMED"
	StatusTimedOut = "TIMED_OUT"
)

// ErrPrescreenRejected reports that a prescreen rule gated the
// submission out before the review suspension began.
var ErrPrescreenRejected = errors.New("submission rejected by prescreen rule")

// Execution is one durable suspension.
type Execution struct {
	ID          int64
	ExecutionID string
	RecordID    string
	Token       string
	Status      string
	StartedAt   time.Time
	Deadline    time.Time
	ClosedAt    *time.Time
}

// Store persists executions. CloseByToken and ExpireDue are the two
// paths that close a token; both are conditional on StatusWaiting so a
// token can close at most once.
type Store interface {
	Create(ctx context.Context, exec *Execution) error
	CloseByToken(ctx context.Context, token string, status string, at time.Time) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) ([]*Execution, error)
}

// Engine implements workflow.Engine on top of a Store.
type Engine struct {
	store         Store
	records       approval.Repository
	rules         []rule.Rule
	reviewTimeout time.Duration
	logger        zerolog.Logger
}

// NewEngine creates an engine. rules may be empty; reviewTimeout bounds
// how long an execution may wait for a decision.
func NewEngine(store Store, records approval.Repository, rules []rule.Rule, reviewTimeout time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		store:         store,
		records:       records,
		rules:         rules,
		reviewTimeout: reviewTimeout,
		logger:        logger.With().Str("service", "stepflow").Logger(),
	}
}

// Start runs the prescreen rules against the record's metadata, creates
// a waiting execution, and writes its continuation token onto the
// approval record.
func (e *Engine) Start(ctx context.Context, input workflow.StartInput) (string, error) {
	record, err := e.records.GetByID(ctx, input.RecordID)
	if err != nil {
		return "", fmt.Errorf("failed to load record for execution: %w", err)
	}

	for _, r := range e.rules {
		passed, err := r.Evaluate(record.Metadata)
		if err != nil {
			return "", fmt.Errorf("prescreen rule %q failed to evaluate: %w", r.Name, err)
		}
		if !passed {
			e.logger.Info().
				Str("recordId", input.RecordID).
				Str("rule", r.Name).
				Msg("submission rejected by prescreen rule")
			return "", fmt.Errorf("%w: %s", ErrPrescreenRejected, r.Name)
		}
	}

	now := time.Now().UTC()
	exec := &Execution{
		ExecutionID: uuid.New().String(),
		RecordID:    input.RecordID,
		Token:       uuid.New().String(),
		Status:      StatusWaiting,
		StartedAt:   now,
		Deadline:    now.Add(e.reviewTimeout),
	}
	if err := e.store.Create(ctx, exec); err != nil {
		return "", fmt.Errorf("failed to create execution: %w", err)
	}

	if err := e.records.SetContinuationToken(ctx, input.RecordID, exec.Token); err != nil {
		return "", fmt.Errorf("failed to attach continuation token: %w", err)
	}

	e.logger.Info().
		Str("executionId", exec.ExecutionID).
		Str("recordId", input.RecordID).
		Time("deadline", exec.Deadline).
		Msg("execution suspended awaiting decision")
	return exec.ExecutionID, nil
}

// Resume consumes the token. A token that was never issued, was already
// consumed, or was expired by the sweeper reports ErrTokenClosed.
func (e *Engine) Resume(ctx context.Context, token string, payload workflow.ResumePayload) error {
	closed, err := e.store.CloseByToken(ctx, token, StatusResumed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrEngineUnavailable, err)
	}
	if !closed {
		return workflow.ErrTokenClosed
	}
	e.logger.Debug().
		Str("decision", payload.Decision).
		Msg("execution resumed")
	return nil
}
