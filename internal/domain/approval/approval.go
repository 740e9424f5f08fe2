package approval

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status represents the review status of a submitted item.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Decision represents an admin decision on a pending item.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

var (
	ErrNotFound            = errors.New("approval record not found")
	ErrAlreadyExists       = errors.New("approval record already exists")
	ErrMissingContinuation = errors.New("approval record has no continuation token")
	ErrInvalidDecision     = errors.New("decision must be APPROVE or REJECT")
)

// AlreadyResolvedError signals that a record has already left PENDING.
// Callers must treat it as a successful no-op, not a failure.
type AlreadyResolvedError struct {
	RecordID string
	Status   Status
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("approval %s already resolved: %s", e.RecordID, e.Status)
}

// Record is the entity under workflow control. ContinuationToken is
// present iff Status is PENDING; it is cleared atomically with the
// status transition.
type Record struct {
	ID                  string          `json:"id"`
	OwnerRef            string          `json:"ownerRef"`
	PayloadRef          string          `json:"payloadRef"`
	Status              Status          `json:"status"`
	ContinuationToken   *string         `json:"-"`
	Decision            *Decision       `json:"decision,omitempty"`
	DecisionReason      *string         `json:"decisionReason,omitempty"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
	RequestedAt         time.Time       `json:"requestedAt"`
	DecidedAt           *time.Time      `json:"decidedAt,omitempty"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	ResolutionSucceeded *bool           `json:"resolutionSucceeded,omitempty"`
}

// Resolved reports whether the record has left PENDING.
func (r *Record) Resolved() bool {
	return r.Status != StatusPending
}

// ParseDecision validates the decision literal. Only the exact
// uppercase forms are accepted.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", ErrInvalidDecision
	}
}

// StatusFor maps a decision to the terminal status it produces.
func StatusFor(d Decision) Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// DefaultReason returns the canned reason used when the admin supplies none.
func DefaultReason(d Decision) string {
	if d == DecisionApprove {
		return "Approved by admin"
	}
	return "Rejected by admin"
}
