package stepflow

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closet-hub/closet-hub/internal/domain/approval"
	"github.com/closet-hub/closet-hub/internal/domain/rule"
	"github.com/closet-hub/closet-hub/internal/domain/workflow"
)

type memStore struct {
	mu    sync.Mutex
	execs map[string]*Execution
}

func newMemStore() *memStore {
	return &memStore{execs: map[string]*Execution{}}
}

func (m *memStore) Create(_ context.Context, exec *Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *exec
	m.execs[exec.Token] = &cp
	return nil
}

func (m *memStore) CloseByToken(_ context.Context, token string, status string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.execs[token]
	if !ok || exec.Status != StatusWaiting {
		return false, nil
	}
	exec.Status = status
	exec.ClosedAt = &at
	return true, nil
}

func (m *memStore) ExpireDue(_ context.Context, now time.Time) ([]*Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Execution
	for _, exec := range m.execs {
		if exec.Status == StatusWaiting && exec.Deadline.Before(now) {
			exec.Status = StatusTimedOut
			closed := now
			exec.ClosedAt = &closed
			cp := *exec
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRecords struct {
	mu      sync.Mutex
	records map[string]*approval.Record
}

func newMemRecords() *memRecords {
	return &memRecords{records: map[string]*approval.Record{}}
}

func (m *memRecords) Create(_ context.Context, rec *approval.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (*approval.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, approval.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRecords) SetContinuationToken(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return approval.ErrNotFound
	}
	rec.ContinuationToken = &token
	return nil
}

func (m *memRecords) TransitionIfPending(_ context.Context, _ string, _ approval.Transition) (bool, error) {
	return false, nil
}

func (m *memRecords) List(_ context.Context, _ approval.Filter, _, _ int) ([]*approval.Record, error) {
	return nil, nil
}

func seedRecord(t *testing.T, records *memRecords, id string, metadata json.RawMessage) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, records.Create(context.Background(), &approval.Record{
		ID:          id,
		OwnerRef:    "owner-1",
		PayloadRef:  "uploads/" + id,
		Status:      approval.StatusPending,
		Metadata:    metadata,
		RequestedAt: now,
		UpdatedAt:   now,
	}))
}

func TestStartWritesToken(t *testing.T) {
	store := newMemStore()
	records := newMemRecords()
	seedRecord(t, records, "rec-1", nil)
	engine := NewEngine(store, records, nil, time.Hour, zerolog.Nop())

	execRef, err := engine.Start(context.Background(), workflow.StartInput{RecordID: "rec-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, execRef)

	rec, err := records.GetByID(context.Background(), "rec-1")
	require.NoError(t, err)
	require.NotNil(t, rec.ContinuationToken)
	assert.NotEmpty(t, *rec.ContinuationToken)
}

func TestResumeConsumesTokenOnce(t *testing.T) {
	store := newMemStore()
	records := newMemRecords()
	seedRecord(t, records, "rec-2", nil)
	engine := NewEngine(store, records, nil, time.Hour, zerolog.Nop())

	_, err := engine.Start(context.Background(), workflow.StartInput{RecordID: "rec-2"})
	require.NoError(t, err)
	rec, _ := records.GetByID(context.Background(), "rec-2")
	token := *rec.ContinuationToken

	payload := workflow.ResumePayload{Decision: "APPROVE", Reason: "looks good"}
	require.NoError(t, engine.Resume(context.Background(), token, payload))

	err = engine.Resume(context.Background(), token, payload)
	require.ErrorIs(t, err, workflow.ErrTokenClosed)
}

func TestResumeUnknownToken(t *testing.T) {
	engine := NewEngine(newMemStore(), newMemRecords(), nil, time.Hour, zerolog.Nop())
	err := engine.Resume(context.Background(), "never-issued", workflow.ResumePayload{Decision: "APPROVE"})
	require.ErrorIs(t, err, workflow.ErrTokenClosed)
}

func TestStartPrescreenRejects(t *testing.T) {
	store := newMemStore()
	records := newMemRecords()
	seedRecord(t, records, "rec-3", json.RawMessage(`{"sizeBytes": 99999999}`))
	rules := []rule.Rule{{Name: "max-size", Expression: "sizeBytes < 10485760"}}
	engine := NewEngine(store, records, rules, time.Hour, zerolog.Nop())

	_, err := engine.Start(context.Background(), workflow.StartInput{RecordID: "rec-3"})
	require.ErrorIs(t, err, ErrPrescreenRejected)

	rec, _ := records.GetByID(context.Background(), "rec-3")
	assert.Nil(t, rec.ContinuationToken)
}

func TestStartPrescreenPasses(t *testing.T) {
	store := newMemStore()
	records := newMemRecords()
	seedRecord(t, records, "rec-4", json.RawMessage(`{"sizeBytes": 1024}`))
	rules := []rule.Rule{{Name: "max-size", Expression: "sizeBytes < 10485760"}}
	engine := NewEngine(store, records, rules, time.Hour, zerolog.Nop())

	_, err := engine.Start(context.Background(), workflow.StartInput{RecordID: "rec-4"})
	require.NoError(t, err)
}

func TestSweeperClosesExpiredTokens(t *testing.T) {
	store := newMemStore()
	records := newMemRecords()
	seedRecord(t, records, "rec-5", nil)
	engine := NewEngine(store, records, nil, -time.Minute, zerolog.Nop())

	_, err := engine.Start(context.Background(), workflow.StartInput{RecordID: "rec-5"})
	require.NoError(t, err)
	rec, _ := records.GetByID(context.Background(), "rec-5")
	token := *rec.ContinuationToken

	sweeper := NewSweeper(store, nil, nil, nil, time.Minute, zerolog.Nop())
	sweeper.Sweep(context.Background())

	// The record is untouched; only the token is closed.
	rec, _ = records.GetByID(context.Background(), "rec-5")
	assert.Equal(t, approval.StatusPending, rec.Status)

	err = engine.Resume(context.Background(), token, workflow.ResumePayload{Decision: "APPROVE"})
	require.ErrorIs(t, err, workflow.ErrTokenClosed)
}
