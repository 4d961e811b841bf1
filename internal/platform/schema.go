package platform

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS operators (
  id            TEXT PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  display_name  TEXT NOT NULL DEFAULT '',
  role          TEXT NOT NULL,
  active        BOOLEAN NOT NULL DEFAULT TRUE,
  password_hash TEXT NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS area_managers (
  area       TEXT PRIMARY KEY,
  manager    TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS complaints (
  id                 TEXT PRIMARY KEY,
  date               DATE NOT NULL,
  patient_name       TEXT NOT NULL,
  patient_phone      TEXT NOT NULL DEFAULT '',
  doctor_name        TEXT NOT NULL DEFAULT '',
  specialty          TEXT NOT NULL DEFAULT '',
  area               TEXT NOT NULL,
  description        TEXT NOT NULL,
  status             TEXT NOT NULL,
  priority           TEXT NOT NULL,
  satisfaction       SMALLINT NOT NULL,
  sentiment          TEXT NOT NULL DEFAULT '',
  suggested_response TEXT NOT NULL DEFAULT '',
  management_response TEXT NOT NULL DEFAULT '',
  resolved_by        TEXT NOT NULL DEFAULT '',
  manager            TEXT NOT NULL DEFAULT '',
  created_at         TIMESTAMPTZ NOT NULL,
  updated_at         TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS complaints_area_status_idx ON complaints (area, status)`,
	`CREATE INDEX IF NOT EXISTS complaints_date_idx ON complaints (date)`,
	`CREATE TABLE IF NOT EXISTS campaign_stats (
  date              DATE PRIMARY KEY,
  calls_made        INT NOT NULL,
  answered          INT NOT NULL,
  unanswered        INT NOT NULL,
  complaints_logged INT NOT NULL,
  operator          TEXT NOT NULL DEFAULT '',
  notes             TEXT NOT NULL DEFAULT '',
  updated_at        TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
  id         TEXT PRIMARY KEY,
  type       TEXT NOT NULL,
  actor_id   TEXT NOT NULL DEFAULT '',
  actor_role TEXT NOT NULL DEFAULT '',
  subject    TEXT NOT NULL DEFAULT '',
  message    TEXT NOT NULL DEFAULT '',
  metadata   TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
}

// EnsureSchema creates the tables the API needs. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
