package audit

import (
	"context"

	"quality-desk/internal/platform"
)

// PostgresRepo appends to audit_events. It never updates or deletes.
type PostgresRepo struct {
	conn platform.Conn
}

func NewPostgresRepo(conn platform.Conn) *PostgresRepo { return &PostgresRepo{conn: conn} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	const q = `
INSERT INTO audit_events (id, type, actor_id, actor_role, subject, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err = db.ExecContext(ctx, q, e.ID, e.Type, e.ActorID, e.ActorRole, e.Subject, e.Message, e.Metadata, e.CreatedAt)
	return err
}
