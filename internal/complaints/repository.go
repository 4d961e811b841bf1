package complaints

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quality-desk/internal/platform"
	"quality-desk/pkg/utils"
)

// Repository is the persistence contract for complaint records.
type Repository interface {
	// Upsert inserts or fully replaces the record keyed by ID.
	Upsert(ctx context.Context, c Complaint) error
	Get(ctx context.Context, id string) (Complaint, error)
	// List returns records whose Date falls in r, newest first.
	List(ctx context.Context, r Range) ([]Complaint, error)
	// Resolve applies r to the stored record and returns the new value.
	Resolve(ctx context.Context, id string, r Resolution, now time.Time) (Complaint, error)
}

// PostgresRepo stores complaints in the complaints table.
type PostgresRepo struct {
	conn platform.Conn
}

func NewPostgresRepo(conn platform.Conn) *PostgresRepo { return &PostgresRepo{conn: conn} }

const complaintColumns = `id, date::text, patient_name, patient_phone, doctor_name, specialty, area, description,
       status, priority, satisfaction, sentiment, suggested_response, management_response,
       resolved_by, manager, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (Complaint, error) {
	var c Complaint
	err := row.Scan(
		&c.ID,
		&c.Date,
		&c.PatientName,
		&c.PatientPhone,
		&c.DoctorName,
		&c.Specialty,
		&c.Area,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.Satisfaction,
		&c.Sentiment,
		&c.SuggestedResponse,
		&c.ManagementResponse,
		&c.ResolvedBy,
		&c.Manager,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *PostgresRepo) Upsert(ctx context.Context, c Complaint) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	const q = `
INSERT INTO complaints (
  id, date, patient_name, patient_phone, doctor_name, specialty, area, description,
  status, priority, satisfaction, sentiment, suggested_response, management_response,
  resolved_by, manager, created_at, updated_at
) VALUES (
  $1,$2::date,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
)
ON CONFLICT (id) DO UPDATE SET
  date = EXCLUDED.date,
  patient_name = EXCLUDED.patient_name,
  patient_phone = EXCLUDED.patient_phone,
  doctor_name = EXCLUDED.doctor_name,
  specialty = EXCLUDED.specialty,
  area = EXCLUDED.area,
  description = EXCLUDED.description,
  status = EXCLUDED.status,
  priority = EXCLUDED.priority,
  satisfaction = EXCLUDED.satisfaction,
  sentiment = EXCLUDED.sentiment,
  suggested_response = EXCLUDED.suggested_response,
  management_response = EXCLUDED.management_response,
  resolved_by = EXCLUDED.resolved_by,
  manager = CASE
    WHEN complaints.status = 'Resolved' THEN complaints.manager
    ELSE COALESCE(NULLIF(EXCLUDED.manager, ''), complaints.manager)
  END,
  updated_at = EXCLUDED.updated_at
`
	_, err = db.ExecContext(ctx, q,
		c.ID,
		c.Date,
		c.PatientName,
		c.PatientPhone,
		c.DoctorName,
		c.Specialty,
		c.Area,
		c.Description,
		c.Status,
		c.Priority,
		c.Satisfaction,
		c.Sentiment,
		c.SuggestedResponse,
		c.ManagementResponse,
		c.ResolvedBy,
		c.Manager,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Complaint, error) {
	db, err := r.conn.DB()
	if err != nil {
		return Complaint{}, err
	}
	c, err := scanComplaint(db.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Complaint{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) List(ctx context.Context, rng Range) ([]Complaint, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	const q = `
SELECT ` + complaintColumns + `
FROM complaints
WHERE ($1 = '' OR date >= $1::date)
  AND ($2 = '' OR date <= $2::date)
ORDER BY date DESC, created_at DESC
`
	rows, err := db.QueryContext(ctx, q, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Resolve(ctx context.Context, id string, res Resolution, now time.Time) (Complaint, error) {
	db, err := r.conn.DB()
	if err != nil {
		return Complaint{}, err
	}
	var out Complaint
	err = utils.WithTx(ctx, db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := scanComplaint(tx.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		next, err := ApplyResolution(cur, res, now)
		if err != nil {
			return err
		}
		const q = `
UPDATE complaints
SET status = $2, management_response = $3, resolved_by = $4, updated_at = $5
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, q, id, next.Status, next.ManagementResponse, next.ResolvedBy, next.UpdatedAt); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}
