package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Driver           string // "sqlite" | "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is an ent SQL driver plus, for postgres, the pgx pool behind it.
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
}

// Dialect is the ent dialect name used to build statements.
func (db *DB) Dialect() string { return db.dialect }

// Open connects to sqlite (modernc) or postgres (pgx pool) and wraps the
// connection for ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("db.connecting", "driver", cfg.Driver)

	switch cfg.Driver {
	case "", "sqlite":
		sdb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("db.connect.failed", "error", err)
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// modernc serializes writers; one connection avoids SQLITE_BUSY.
		sdb.SetMaxOpenConns(1)
		db := &DB{drv: entsql.OpenDB(dialect.SQLite, sdb), dialect: dialect.SQLite}
		if err := db.HealthCheck(ctx, cfg.DialTimeout, logger); err != nil {
			_ = sdb.Close()
			return nil, err
		}
		logger.Info("db.connected", "driver", "sqlite")
		return db, nil

	case "postgres":
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("db.connect.failed", "error", err)
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			pc.MinConns = cfg.MinConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		if cfg.MaxConnIdleTime > 0 {
			pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "legal-analyzer"
		if cfg.StatementTimeout > 0 {
			pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
		}

		dialCtx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("db.connect.failed", "error", err)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		// Wrap pool as *sql.DB for ent
		sdb := stdlib.OpenDBFromPool(pool)
		logger.Info("db.connected", "driver", "postgres")
		return &DB{drv: entsql.OpenDB(dialect.Postgres, sdb), pool: pool, dialect: dialect.Postgres}, nil

	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.drv.Close(); err != nil {
		logger.Error("db.close.failed", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Debug("db.closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if db.pool != nil {
		err = db.pool.Ping(ctx)
	} else {
		err = db.drv.DB().PingContext(ctx)
	}
	if err != nil {
		logger.Error("db.ping.failed", "error", err)
		return fmt.Errorf("ping: %w", err)
	}
	logger.Debug("db.ping.ok")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		file_type   TEXT NOT NULL,
		blob_key    TEXT NOT NULL,
		size_bytes  BIGINT NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		uploaded_at TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_status_idx ON documents (status)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		document_id TEXT PRIMARY KEY REFERENCES documents (id) ON DELETE CASCADE,
		data        TEXT NOT NULL,
		analyzed_at TEXT NOT NULL
	)`,
}

// Migrate creates the documents and analyses tables if they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		var res sql.Result
		if err := db.drv.Exec(ctx, stmt, []any{}, &res); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
