package approval

import (
	"context"
	"time"
)

// Filter controls approval record listing.
type Filter struct {
	Status   *Status
	OwnerRef *string
}

// Transition carries the fields written by the conditional status update.
type Transition struct {
	Status              Status
	Decision            Decision
	Reason              string
	DecidedAt           time.Time
	ResolutionSucceeded bool
}

// Repository defines persistence for approval records. Implementations
// back the conditional operations with compare-and-swap writes; the
// repository is the only synchronization point between concurrent
// decisions.
type Repository interface {
	// Create inserts a new record and fails with ErrAlreadyExists if a
	// record with the same id is already stored.
	Create(ctx context.Context, rec *Record) error

	// GetByID returns ErrNotFound when no record exists.
	GetByID(ctx context.Context, id string) (*Record, error)

	// SetContinuationToken writes the token onto a still-pending record.
	SetContinuationToken(ctx context.Context, id, token string) error

	// TransitionIfPending applies the transition conditioned on the
	// record still being PENDING at write time, clearing the
	// continuation token atomically. It returns false, nil when the
	// condition failed because another caller already transitioned the
	// record.
	TransitionIfPending(ctx context.Context, id string, tr Transition) (bool, error)

	List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, error)
}
