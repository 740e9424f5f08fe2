package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/closet-hub/closet-hub/internal/domain/audit"
)

// AuditRepository implements audit.Repository. Entries are append-only;
// no update or delete statements exist on this table.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_entries
		(audit_id, record_id, action, actor, detail, signature, at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.AuditID, entry.RecordID, entry.Action, entry.Actor, entry.Detail, entry.Signature, entry.At)
	return err
}

func (r *AuditRepository) ListByRecord(ctx context.Context, recordID string) ([]*audit.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, audit_id, record_id, action, actor, detail, signature, at
		FROM audit_entries WHERE record_id=$1 ORDER BY at ASC, id ASC
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.AuditID, &e.RecordID, &e.Action, &e.Actor, &e.Detail, &e.Signature, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
