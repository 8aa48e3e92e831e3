// Package store keeps a row per processed document in sqlite or postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// DB wraps *sql.DB with the dialect it talks to. Queries are written with
// "?" placeholders and rebound for postgres.
type DB struct {
	*sql.DB
	dialect Dialect
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// DialectOf picks postgres for postgres:// URLs and sqlite for everything
// else, which is taken as a file path (an optional "sqlite://" prefix is
// dropped).
func DialectOf(dsn string) (Dialect, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://")
	}
	return DialectSQLite, dsn
}

// Open connects and creates the schema when it is missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, common.NewConfigError("store dsn is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	dialect, dsn := DialectOf(cfg.DSN)
	logger.Info("store.open", "dialect", dialect)

	db := &DB{dialect: dialect, logger: logger}
	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("store.open.failed", "error", err)
			return nil, common.NewAppError(common.CodeStore, "parse dsn", err)
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "doccollate"

		dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("store.open.failed", "error", err)
			return nil, common.NewAppError(common.CodeStore, "connect", err)
		}
		db.pool = pool
		db.DB = stdlib.OpenDBFromPool(pool)
	default:
		sqlDB, err := sql.Open("sqlite", dsn)
		if err != nil {
			logger.Error("store.open.failed", "error", err)
			return nil, common.NewAppError(common.CodeStore, "open sqlite", err)
		}
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
		db.DB = sqlDB
	}

	if err := db.HealthCheck(ctx, cfg.DialTimeout); err != nil {
		db.Close()
		return nil, common.NewAppError(common.CodeStore, "ping", err)
	}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, common.NewAppError(common.CodeStore, "migrate", err)
	}
	logger.Info("store.open.ok", "dialect", dialect)
	return db, nil
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Close closes the database connections gracefully.
func (db *DB) Close() {
	if db.DB != nil {
		if err := db.DB.Close(); err != nil {
			db.logger.Error("store.close.failed", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("store.closed")
}

// HealthCheck pings the database.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.logger.Error("store.ping.failed", "error", err)
		return err
	}
	db.logger.Debug("store.ping.ok")
	return nil
}

const schema = `CREATE TABLE IF NOT EXISTS extraction_run (
	id            TEXT PRIMARY KEY,
	path          TEXT NOT NULL,
	target        TEXT NOT NULL,
	content_hash  TEXT NOT NULL DEFAULT '',
	source_type   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT,
	error_message TEXT,
	field_count   INTEGER NOT NULL DEFAULT 0,
	result_json   TEXT
)`

const indexStatus = `CREATE INDEX IF NOT EXISTS extraction_run_status_idx ON extraction_run (status)`

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range []string{schema, indexStatus} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
