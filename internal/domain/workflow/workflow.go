package workflow

import (
	"context"
	"errors"
)

var (
	// ErrTokenClosed reports that a continuation token was already
	// consumed, expired, or its execution no longer exists.
	ErrTokenClosed = errors.New("continuation token already closed")

	// ErrEngineUnavailable reports any other resume or start failure.
	ErrEngineUnavailable = errors.New("workflow engine unavailable")
)

// StartInput carries the submission into a new suspended execution.
type StartInput struct {
	RecordID   string
	OwnerRef   string
	PayloadRef string
}

// ResumePayload is handed to the suspended execution on resumption.
type ResumePayload struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Engine is a durable-execution service that can suspend a running
// process and resume it later given an opaque continuation token. The
// token is a single-use capability: once consumed, by decision or by
// timeout, Resume reports ErrTokenClosed.
type Engine interface {
	// Start launches a suspended execution and returns an opaque
	// execution reference. The engine is responsible for writing the
	// continuation token onto the approval record before it begins
	// waiting.
	Start(ctx context.Context, input StartInput) (string, error)

	// Resume completes the suspension identified by token. Errors are a
	// closed kind set: ErrTokenClosed, ErrEngineUnavailable.
	Resume(ctx context.Context, token string, payload ResumePayload) error
}
