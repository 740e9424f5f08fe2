package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/closet-hub/closet-hub/internal/infrastructure/stepflow"
)

// ExecutionRepository implements stepflow.Store.
type ExecutionRepository struct {
	pool *pgxpool.Pool
}

func NewExecutionRepository(pool *pgxpool.Pool) *ExecutionRepository {
	return &ExecutionRepository{pool: pool}
}

func (r *ExecutionRepository) Create(ctx context.Context, exec *stepflow.Execution) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stepflow_executions
		(execution_id, record_id, token, status, started_at, deadline)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, exec.ExecutionID, exec.RecordID, exec.Token, exec.Status, exec.StartedAt, exec.Deadline)
	return err
}

// CloseByToken flips a waiting execution to the given terminal status.
// Returns false when the token does not exist or was already closed.
func (r *ExecutionRepository) CloseByToken(ctx context.Context, token string, status string, at time.Time) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE stepflow_executions
		SET status=$1, closed_at=$2
		WHERE token=$3 AND status=$4
	`, status, at, token, stepflow.StatusWaiting)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// ExpireDue closes every waiting execution past its deadline and
// returns the closed rows.
func (r *ExecutionRepository) ExpireDue(ctx context.Context, now time.Time) ([]*stepflow.Execution, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE stepflow_executions
		SET status=$1, closed_at=$2
		WHERE status=$3 AND deadline < $2
		RETURNING id, execution_id, record_id, token, status, started_at, deadline, closed_at
	`, stepflow.StatusTimedOut, now, stepflow.StatusWaiting)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var execs []*stepflow.Execution
	for rows.Next() {
		var e stepflow.Execution
		if err := rows.Scan(&e.ID, &e.ExecutionID, &e.RecordID, &e.Token, &e.Status, &e.StartedAt, &e.Deadline, &e.ClosedAt); err != nil {
			return nil, err
		}
		execs = append(execs, &e)
	}
	return execs, rows.Err()
}
