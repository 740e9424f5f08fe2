package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/closet-hub/closet-hub/internal/domain/approval"
)

// ApprovalRepository implements approval.Repository. Conditional writes
// are expressed as guarded UPDATE/INSERT statements; a zero row count
// means the condition failed.
type ApprovalRepository struct {
	pool *pgxpool.Pool
}

func NewApprovalRepository(pool *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{pool: pool}
}

func (r *ApprovalRepository) Create(ctx context.Context, rec *approval.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_records
		(record_id, owner_ref, payload_ref, status, continuation_token, decision, decision_reason, metadata, requested_at, decided_at, updated_at, resolution_succeeded)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, rec.ID, rec.OwnerRef, rec.PayloadRef, rec.Status, rec.ContinuationToken, rec.Decision, rec.DecisionReason, rec.Metadata, rec.RequestedAt, rec.DecidedAt, rec.UpdatedAt, rec.ResolutionSucceeded)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return approval.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*approval.Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, record_id, owner_ref, payload_ref, status, continuation_token, decision, decision_reason, metadata, requested_at, decided_at, updated_at, resolution_succeeded
		FROM approval_records WHERE record_id=$1
	`, id)
	return scanRecord(row)
}

func (r *ApprovalRepository) SetContinuationToken(ctx context.Context, id, token string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE approval_records SET continuation_token=$1, updated_at=now()
		WHERE record_id=$2 AND status=$3
	`, token, id, approval.StatusPending)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return approval.ErrNotFound
	}
	return nil
}

func (r *ApprovalRepository) TransitionIfPending(ctx context.Context, id string, tr approval.Transition) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE approval_records
		SET status=$1, decision=$2, decision_reason=$3, decided_at=$4, updated_at=$4,
		    resolution_succeeded=$5, continuation_token=NULL
		WHERE record_id=$6 AND status=$7
	`, tr.Status, tr.Decision, tr.Reason, tr.DecidedAt, tr.ResolutionSucceeded, id, approval.StatusPending)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *ApprovalRepository) List(ctx context.Context, filter approval.Filter, limit, offset int) ([]*approval.Record, error) {
	query := `SELECT id, record_id, owner_ref, payload_ref, status, continuation_token, decision, decision_reason, metadata, requested_at, decided_at, updated_at, resolution_succeeded FROM approval_records`
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		query += " WHERE status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.OwnerRef != nil {
		query += addWhere(query) + " owner_ref=$" + itoa(idx)
		args = append(args, *filter.OwnerRef)
		idx++
	}
	query += " ORDER BY requested_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*approval.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*approval.Record, error) {
	var rec approval.Record
	var dbID int64
	if err := row.Scan(&dbID, &rec.ID, &rec.OwnerRef, &rec.PayloadRef, &rec.Status, &rec.ContinuationToken, &rec.Decision, &rec.DecisionReason, &rec.Metadata, &rec.RequestedAt, &rec.DecidedAt, &rec.UpdatedAt, &rec.ResolutionSucceeded); err != nil {
		if err == pgx.ErrNoRows {
			return nil, approval.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func addWhere(query string) string {
	if strings.Contains(query, " WHERE ") {
		return " AND"
	}
	return " WHERE"
}
