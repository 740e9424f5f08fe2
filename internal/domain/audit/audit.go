package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action tags the kind of fact an audit entry records.
type Action string

const (
	ActionSubmissionReceived Action = "SUBMISSION_RECEIVED"
	ActionDecisionRecorded   Action = "DECISION_RECORDED"
	ActionTokenAlreadyClosed Action = "DECISION_TOKEN_ALREADY_CLOSED"
	ActionEngineError        Action = "DECISION_ENGINE_ERROR"
	ActionReviewTimedOut     Action = "REVIEW_TIMED_OUT"
)

// Entry is an immutable, append-only fact about an approval record.
// RecordID and At form the ordering key: later entries for the same
// record sort after earlier ones.
type Entry struct {
	ID        int64           `json:"id"`
	AuditID   uuid.UUID       `json:"auditId"`
	RecordID  string          `json:"recordId"`
	Action    Action          `json:"action"`
	Actor     string          `json:"actor,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Signature []byte          `json:"signature,omitempty"`
	At        time.Time       `json:"at"`
}

// NewEntry stamps identity and timestamp onto an entry.
func NewEntry(recordID string, action Action, actor string, detail json.RawMessage) *Entry {
	return &Entry{
		AuditID:  uuid.New(),
		RecordID: recordID,
		Action:   action,
		Actor:    actor,
		Detail:   detail,
		At:       time.Now().UTC(),
	}
}
