package areas

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quality-desk/internal/platform"
	"quality-desk/pkg/utils"
)

// Repository is the persistence contract for area assignments.
type Repository interface {
	// Reassign upserts the mapping and moves every open complaint of the
	// area to manager. Both steps commit together or not at all.
	Reassign(ctx context.Context, area, manager string, now time.Time) (Result, error)
	List(ctx context.Context) ([]Assignment, error)
	ManagerFor(ctx context.Context, area string) (string, bool, error)
}

type PostgresRepo struct {
	conn platform.Conn
}

func NewPostgresRepo(conn platform.Conn) *PostgresRepo { return &PostgresRepo{conn: conn} }

func (r *PostgresRepo) Reassign(ctx context.Context, area, manager string, now time.Time) (Result, error) {
	db, err := r.conn.DB()
	if err != nil {
		return Result{}, err
	}
	out := Result{Area: area, Manager: manager}
	err = utils.WithTx(ctx, db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const upsert = `
INSERT INTO area_managers (area, manager, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (area) DO UPDATE SET
  manager = EXCLUDED.manager,
  updated_at = EXCLUDED.updated_at
`
		if _, err := tx.ExecContext(ctx, upsert, area, manager, now); err != nil {
			return err
		}

		// Resolved rows keep the manager they were closed under.
		const cascade = `
UPDATE complaints
SET manager = $2, updated_at = $3
WHERE area = $1 AND status IN ('Pending', 'InProcess')
`
		res, err := tx.ExecContext(ctx, cascade, area, manager, now)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		out.Affected = n
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return out, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Assignment, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT area, manager, updated_at FROM area_managers ORDER BY area`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Assignment, 0)
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.Area, &a.Manager, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ManagerFor(ctx context.Context, area string) (string, bool, error) {
	db, err := r.conn.DB()
	if err != nil {
		return "", false, err
	}
	var manager string
	err = db.QueryRowContext(ctx, `SELECT manager FROM area_managers WHERE area = $1`, area).Scan(&manager)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return manager, true, nil
}
