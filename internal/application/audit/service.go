package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/closet-hub/closet-hub/internal/domain/audit"
)

// Service handles the append-only audit trail for approval records.
type Service struct {
	repo    audit.Repository
	signKey []byte
	logger  zerolog.Logger
}

// NewService creates an audit service. signKey may be nil; when set,
// entries are HMAC-signed before persistence.
func NewService(repo audit.Repository, signKey []byte, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Append records one fact about a record. detail is marshaled to JSON.
func (s *Service) Append(ctx context.Context, recordID string, action audit.Action, actor string, detail interface{}) error {
	var raw json.RawMessage
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
		raw = data
	}

	entry := audit.NewEntry(recordID, action, actor, raw)
	if len(s.signKey) > 0 {
		sig, err := audit.Sign(entry, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit entry: %w", err)
		}
		entry.Signature = sig
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	s.logger.Debug().
		Str("auditId", entry.AuditID.String()).
		Str("recordId", entry.RecordID).
		Str("action", string(entry.Action)).
		Msg("audit entry appended")
	return nil
}

// History returns a record's audit entries ordered by time ascending.
func (s *Service) History(ctx context.Context, recordID string) ([]*audit.Entry, error) {
	entries, err := s.repo.ListByRecord(ctx, recordID)
	if err != nil {
		s.logger.Error().Err(err).Str("recordId", recordID).Msg("failed to read audit history")
		return nil, fmt.Errorf("failed to read audit history: %w", err)
	}
	return entries, nil
}

// VerifyIntegrity re-computes an entry's signature against the key.
func (s *Service) VerifyIntegrity(entry *audit.Entry) (bool, error) {
	if len(s.signKey) == 0 {
		return false, fmt.Errorf("no signing key configured")
	}
	return audit.Verify(entry, s.signKey)
}
