package campaign

import (
	"context"
	"sort"
	"sync"

	"quality-desk/internal/complaints"
	"quality-desk/internal/platform"
)

type Repository interface {
	Upsert(ctx context.Context, d DailyStats) error
	// List returns days inside r, newest first.
	List(ctx context.Context, r complaints.Range) ([]DailyStats, error)
}

type PostgresRepo struct {
	conn platform.Conn
}

func NewPostgresRepo(conn platform.Conn) *PostgresRepo { return &PostgresRepo{conn: conn} }

func (r *PostgresRepo) Upsert(ctx context.Context, d DailyStats) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}
	const q = `
INSERT INTO campaign_stats (date, calls_made, answered, unanswered, complaints_logged, operator, notes, updated_at)
VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (date) DO UPDATE SET
  calls_made = EXCLUDED.calls_made,
  answered = EXCLUDED.answered,
  unanswered = EXCLUDED.unanswered,
  complaints_logged = EXCLUDED.complaints_logged,
  operator = EXCLUDED.operator,
  notes = EXCLUDED.notes,
  updated_at = EXCLUDED.updated_at
`
	_, err = db.ExecContext(ctx, q, d.Date, d.CallsMade, d.Answered, d.Unanswered, d.ComplaintsLogged, d.Operator, d.Notes, d.UpdatedAt)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, rng complaints.Range) ([]DailyStats, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}
	const q = `
SELECT date::text, calls_made, answered, unanswered, complaints_logged, operator, notes, updated_at
FROM campaign_stats
WHERE ($1 = '' OR date >= $1::date)
  AND ($2 = '' OR date <= $2::date)
ORDER BY date DESC
`
	rows, err := db.QueryContext(ctx, q, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyStats, 0)
	for rows.Next() {
		var d DailyStats
		if err := rows.Scan(&d.Date, &d.CallsMade, &d.Answered, &d.Unanswered, &d.ComplaintsLogged, &d.Operator, &d.Notes, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	byDate map[string]DailyStats

	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{byDate: map[string]DailyStats{}} }

func (r *MemoryRepo) Upsert(ctx context.Context, d DailyStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.byDate[d.Date] = d
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, rng complaints.Range) ([]DailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]DailyStats, 0, len(r.byDate))
	for _, d := range r.byDate {
		if rng.Contains(d.Date) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
