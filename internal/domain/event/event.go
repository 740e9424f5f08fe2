package event

import (
	"context"
	"time"
)

// Type tags an outward workflow event.
type Type string

const (
	TypeItemSubmitted  Type = "ItemSubmitted"
	TypeItemApproved   Type = "ItemApproved"
	TypeItemRejected   Type = "ItemRejected"
	TypeReviewTimedOut Type = "ReviewTimedOut"
)

// Event describes a workflow state change for external subscribers.
type Event struct {
	Type                Type      `json:"type"`
	RecordID            string    `json:"id"`
	Decision            string    `json:"decision,omitempty"`
	Reason              string    `json:"reason,omitempty"`
	DecidedAt           time.Time `json:"decidedAt,omitempty"`
	ResolutionSucceeded *bool     `json:"resolutionSucceeded,omitempty"`
}

// Bus is a fire-and-forget fan-out sink. Publish failures are the
// caller's to log; delivery is best effort.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
}
