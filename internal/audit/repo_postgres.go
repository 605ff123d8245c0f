package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo writes events to audit_events. The table has no UPDATE/DELETE grants.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, user_id, email, ip_address, message, created_at)
VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, $6, $7)
`
	if _, err := r.db.ExecContext(ctx, q, e.ID, string(e.Type), e.UserID, e.Email, e.IPAddress, e.Message, e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
