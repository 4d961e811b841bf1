// Package localcache persists the desk's client state in a sqlite file.
// Each key is stored and loaded on its own; a missing or unreadable value
// falls back to its default instead of failing startup.
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"quality-desk/internal/campaign"
	"quality-desk/internal/desk"

	_ "github.com/mattn/go-sqlite3"
)

const (
	KeyComplaints  = "complaints"
	KeyCampaign    = "campaign"
	KeyAreas       = "areas"
	KeySpecialties = "specialties"
	KeyTelephony   = "telephony"
)

// DefaultAreas is the hospital's area list before anyone edits it.
var DefaultAreas = []string{
	"Urgencias",
	"Consulta Externa",
	"Hospitalización",
	"Cirugía",
	"Cardiología",
	"Pediatría",
	"Ginecología",
	"Laboratorio",
	"Imagenología",
	"Farmacia",
	"Admisión",
	"Caja",
	"Atención al Usuario",
}

var DefaultSpecialties = []string{
	"Medicina General",
	"Medicina Interna",
	"Cardiología",
	"Pediatría",
	"Ginecología",
	"Traumatología",
	"Cirugía General",
	"Dermatología",
	"Neurología",
}

// Telephony is the softphone account. The zero value is the default.
type Telephony struct {
	Server    string `json:"server"`
	Domain    string `json:"domain"`
	Extension string `json:"extension"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type Cache struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the cache file at path.
func Open(path string, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("localcache: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("localcache: open: %w", err)
	}
	// One writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("localcache: schema: %w", err)
	}
	return &Cache{db: db, log: log}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// DefaultPath is ~/.quality-desk/cache.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("localcache: home directory: %w", err)
	}
	return filepath.Join(home, ".quality-desk", "cache.db"), nil
}

func (c *Cache) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localcache: encode %s: %w", key, err)
	}
	_, err = c.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(b), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("localcache: write %s: %w", key, err)
	}
	return nil
}

// get decodes key into dst. It reports false when the key is absent or its
// value does not decode; dst is left for the caller to default.
func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("localcache: read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log.Warn("cached value corrupt, using default", "key", key, "err", err)
		return false, nil
	}
	return true, nil
}

func (c *Cache) LoadComplaints(ctx context.Context) ([]desk.Record, error) {
	var out []desk.Record
	if ok, err := c.get(ctx, KeyComplaints, &out); err != nil || !ok {
		return []desk.Record{}, err
	}
	return out, nil
}

func (c *Cache) SaveComplaints(ctx context.Context, records []desk.Record) error {
	return c.put(ctx, KeyComplaints, records)
}

func (c *Cache) LoadCampaign(ctx context.Context) ([]campaign.DailyStats, error) {
	var out []campaign.DailyStats
	if ok, err := c.get(ctx, KeyCampaign, &out); err != nil || !ok {
		return []campaign.DailyStats{}, err
	}
	return out, nil
}

func (c *Cache) SaveCampaign(ctx context.Context, days []campaign.DailyStats) error {
	return c.put(ctx, KeyCampaign, days)
}

func (c *Cache) Areas(ctx context.Context) []string {
	return c.stringList(ctx, KeyAreas, DefaultAreas)
}

func (c *Cache) SetAreas(ctx context.Context, areas []string) error {
	return c.put(ctx, KeyAreas, areas)
}

func (c *Cache) Specialties(ctx context.Context) []string {
	return c.stringList(ctx, KeySpecialties, DefaultSpecialties)
}

func (c *Cache) SetSpecialties(ctx context.Context, specialties []string) error {
	return c.put(ctx, KeySpecialties, specialties)
}

func (c *Cache) Telephony(ctx context.Context) Telephony {
	var t Telephony
	if ok, err := c.get(ctx, KeyTelephony, &t); err != nil || !ok {
		if err != nil {
			c.log.Warn("telephony settings unreadable, using default", "err", err)
		}
		return Telephony{}
	}
	return t
}

func (c *Cache) SetTelephony(ctx context.Context, t Telephony) error {
	return c.put(ctx, KeyTelephony, t)
}

// Wipe removes every stored key.
func (c *Cache) Wipe(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("localcache: wipe: %w", err)
	}
	return nil
}

func (c *Cache) stringList(ctx context.Context, key string, def []string) []string {
	var out []string
	ok, err := c.get(ctx, key, &out)
	if err != nil {
		c.log.Warn("cached list unreadable, using default", "key", key, "err", err)
	}
	if !ok || err != nil || len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
