// Package platform owns the process-wide handles (Postgres, Redis) behind an
// explicitly constructed Runtime that is passed down to repositories.
package platform

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"quality-desk/internal/config"
	"quality-desk/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// ErrDatabaseUnavailable is returned by every persistence path while no
// database connection is bound.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// Conn hands out the bound database. Repositories depend on this instead of a
// *sql.DB so an unbound runtime fails fast instead of hanging.
type Conn interface {
	DB() (*sql.DB, error)
}

// Runtime is created once at startup and closed on shutdown.
type Runtime struct {
	cfg config.Config
	log *slog.Logger

	mu  sync.RWMutex
	db  *sql.DB
	rdb *redis.Client

	// open is swappable in tests.
	open func(ctx context.Context) (*sql.DB, error)
}

// Health is the connectivity snapshot served by /healthz.
type Health struct {
	Database bool `json:"database"`
	Redis    bool `json:"redis"`
}

// NewRuntime builds an unbound runtime. Call Bind (or KeepBinding) to attach
// the database.
func NewRuntime(cfg config.Config, log *slog.Logger) *Runtime {
	rt := &Runtime{cfg: cfg, log: log}
	rt.open = func(ctx context.Context) (*sql.DB, error) {
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return nil, err
		}
		if err := EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
	return rt
}

// Open builds a runtime and makes one attempt at binding each backend.
// Failures are logged, not returned: the API serves 503 for persistence
// until the database shows up.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) *Runtime {
	rt := NewRuntime(cfg, log)
	if cfg.DatabaseEnabled() {
		if err := rt.Bind(ctx); err != nil {
			log.Warn("postgres not bound", "err", err)
		}
	} else {
		log.Warn("DB_HOST not set; persistence endpoints will answer 503")
	}
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			log.Warn("redis not bound", "err", err)
		} else {
			rt.mu.Lock()
			rt.rdb = rdb
			rt.mu.Unlock()
		}
	}
	return rt
}

// Bind opens the database when it is not bound yet.
func (r *Runtime) Bind(ctx context.Context) error {
	if r.Bound() {
		return nil
	}
	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		_ = db.Close()
		return nil
	}
	r.db = db
	return nil
}

// KeepBinding retries Bind every interval until bound or ctx is done.
func (r *Runtime) KeepBinding(ctx context.Context, interval time.Duration) {
	if !r.cfg.DatabaseEnabled() {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for !r.Bound() {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.Bind(ctx); err != nil {
				r.log.Debug("postgres bind retry failed", "err", err)
				continue
			}
			r.log.Info("postgres bound")
		}
	}
}

func (r *Runtime) DB() (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return r.db, nil
}

func (r *Runtime) Bound() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db != nil
}

// Redis returns the client, or nil when Redis is not configured or down.
func (r *Runtime) Redis() *redis.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rdb
}

func (r *Runtime) Health(ctx context.Context) Health {
	var h Health
	if db, err := r.DB(); err == nil {
		h.Database = utils.HealthCheck(ctx, db, 2*time.Second) == nil
	}
	if rdb := r.Redis(); rdb != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		h.Redis = rdb.Ping(pingCtx).Err() == nil
		cancel()
	}
	return h
}

// Close releases every handle. The runtime is unbound afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	if r.rdb != nil {
		errs = append(errs, r.rdb.Close())
		r.rdb = nil
	}
	return errors.Join(errs...)
}
