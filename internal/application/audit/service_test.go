package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closet-hub/closet-hub/internal/domain/audit"
)

type memAudit struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (m *memAudit) Append(_ context.Context, entry *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAudit) ListByRecord(_ context.Context, recordID string) ([]*audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAppendSignsEntries(t *testing.T) {
	repo := &memAudit{}
	key := []byte("audit-signing-key")
	svc := NewService(repo, key, zerolog.Nop())

	err := svc.Append(context.Background(), "rec-1", audit.ActionDecisionRecorded, "user:mod", map[string]string{"decision": "APPROVE"})
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Signature is raw HMAC-SHA256 output, persisted as bytes.
	assert.Len(t, entries[0].Signature, 32)

	ok, err := svc.VerifyIntegrity(entries[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAppendWithoutKeyLeavesSignatureEmpty(t *testing.T) {
	repo := &memAudit{}
	svc := NewService(repo, nil, zerolog.Nop())

	err := svc.Append(context.Background(), "rec-2", audit.ActionSubmissionReceived, "owner:fan-9", nil)
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "rec-2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Signature)
}

func TestVerifyIntegrityDetectsTamperedDetail(t *testing.T) {
	repo := &memAudit{}
	svc := NewService(repo, []byte("audit-signing-key"), zerolog.Nop())

	err := svc.Append(context.Background(), "rec-3", audit.ActionDecisionRecorded, "user:mod", map[string]string{"decision": "REJECT"})
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "rec-3")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries[0].Detail = []byte(`{"decision":"APPROVE"}`)
	ok, err := svc.VerifyIntegrity(entries[0])
	require.NoError(t, err)
	assert.False(t, ok)
}
