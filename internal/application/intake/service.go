package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/closet-hub/closet-hub/internal/application/decision"
	"github.com/closet-hub/closet-hub/internal/domain/approval"
	"github.com/closet-hub/closet-hub/internal/domain/audit"
	"github.com/closet-hub/closet-hub/internal/domain/event"
	"github.com/closet-hub/closet-hub/internal/domain/workflow"
)

// Service accepts fan closet submissions: it creates the pending record
// and starts the suspended review execution.
type Service struct {
	records approval.Repository
	engine  workflow.Engine
	effects *decision.Dispatcher
	logger  zerolog.Logger
}

// NewService creates an intake service.
func NewService(records approval.Repository, engine workflow.Engine, effects *decision.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		records: records,
		engine:  engine,
		effects: effects,
		logger:  logger.With().Str("service", "intake").Logger(),
	}
}

// SubmitInput describes a new submission. ID is optional; when empty a
// unique id is generated.
type SubmitInput struct {
	ID         string
	OwnerRef   string
	PayloadRef string
	Metadata   json.RawMessage
}

// SubmitResult reports the created record and its execution reference.
type SubmitResult struct {
	OK           bool            `json:"ok"`
	ID           string          `json:"id"`
	ExecutionRef string          `json:"executionRef"`
	Status       approval.Status `json:"status"`
}

// Submit validates the input, conditionally creates the PENDING record,
// and starts the suspended execution. The engine writes the
// continuation token onto the record before it begins waiting; until
// that happens a decision request observes a missing-continuation
// conflict.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	ownerRef := strings.TrimSpace(input.OwnerRef)
	if ownerRef == "" {
		return nil, fmt.Errorf("ownerRef is required")
	}
	payloadRef := strings.TrimSpace(input.PayloadRef)
	if payloadRef == "" {
		return nil, fmt.Errorf("payloadRef is required")
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	rec := &approval.Record{
		ID:          id,
		OwnerRef:    ownerRef,
		PayloadRef:  payloadRef,
		Status:      approval.StatusPending,
		Metadata:    input.Metadata,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}

	executionRef, err := s.engine.Start(ctx, workflow.StartInput{
		RecordID:   id,
		OwnerRef:   ownerRef,
		PayloadRef: payloadRef,
	})
	if err != nil {
		// The record exists but its review was never registered; a
		// later decision will surface a missing-continuation conflict.
		s.logger.Error().Err(err).Str("recordId", id).Msg("failed to start review execution")
		return nil, fmt.Errorf("failed to start review for %s: %w", id, err)
	}

	s.effects.AppendAudit(ctx, id, audit.ActionSubmissionReceived, "owner:"+ownerRef, map[string]interface{}{
		"payloadRef":   payloadRef,
		"executionRef": executionRef,
		"requestedAt":  now,
	})
	s.effects.EmitEvent(ctx, event.Event{Type: event.TypeItemSubmitted, RecordID: id})
	s.effects.Notify(ctx, "Closet approval requested", fmt.Sprintf("submission %s awaits review", id), map[string]interface{}{
		"id":          id,
		"ownerRef":    ownerRef,
		"payloadRef":  payloadRef,
		"requestedAt": now,
	})

	s.logger.Info().Str("recordId", id).Str("executionRef", executionRef).Msg("submission accepted")
	return &SubmitResult{OK: true, ID: id, ExecutionRef: executionRef, Status: approval.StatusPending}, nil
}
