package audit

import "context"

// Repository defines persistence for audit entries. The trail is
// append-only; there is no mutation or deletion API.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	// ListByRecord returns a record's entries ordered by time ascending.
	ListByRecord(ctx context.Context, recordID string) ([]*Entry, error)
}
