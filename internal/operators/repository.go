package operators

import (
	"context"
	"database/sql"
	"errors"

	"quality-desk/internal/platform"
	"quality-desk/pkg/utils"
)

var (
	ErrNotFound      = errors.New("operators: not found")
	ErrUsernameTaken = errors.New("operators: username already taken")
)

type Repository interface {
	Insert(ctx context.Context, o Operator) error
	Update(ctx context.Context, o Operator) error
	Get(ctx context.Context, id string) (Operator, error)
	GetByUsername(ctx context.Context, username string) (Operator, error)
	List(ctx context.Context) ([]Operator, error)
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	conn platform.Conn
}

func NewPostgresRepo(conn platform.Conn) *PostgresRepo { return &PostgresRepo{conn: conn} }

const operatorColumns = `id, username, display_name, role, active, password_hash, created_at, updated_at`

func scanOperator(row interface{ Scan(dest ...any) error }) (Operator, error) {
	var o Operator
	err := row.Scan(&o.ID, &o.Username, &o.DisplayName, &o.Role, &o.Active, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *PostgresRepo) Insert(ctx context.Context, o Operator) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	const q = `
INSERT INTO operators (id, username, display_name, role, active, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err = db.ExecContext(ctx, q, o.ID, o.Username, o.DisplayName, o.Role, o.Active, o.PasswordHash, o.CreatedAt, o.UpdatedAt)
	if utils.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, o Operator) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	const q = `
UPDATE operators
SET display_name = $2, role = $3, active = $4, password_hash = $5, updated_at = $6
WHERE id = $1
`
	res, err := db.ExecContext(ctx, q, o.ID, o.DisplayName, o.Role, o.Active, o.PasswordHash, o.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Operator, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (Operator, error) {
	return r.getBy(ctx, "username", username)
}

func (r *PostgresRepo) getBy(ctx context.Context, column, value string) (Operator, error) {
	db, err := r.conn.DB()
	if err != nil {
		return Operator{}, err
	}
	// column is one of two constants above, never user input.
	o, err := scanOperator(db.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators WHERE `+column+` = $1`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return Operator{}, ErrNotFound
	}
	return o, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Operator, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+operatorColumns+` FROM operators ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Operator, 0)
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	db, err := r.conn.DB()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&n)
	return n, err
}
