package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnectTimeout = 2 * time.Second
	defaultQueryTimeout   = 5 * time.Second
)

// Config captures pool sizing and timeouts for the PostgreSQL connection.
type Config struct {
	DSN            string
	MaxConns       int
	MinConns       int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	// QueryTimeout bounds every repository call, including the wait for a
	// free pooled connection.
	QueryTimeout time.Duration
}

// DB is the process-wide connection pool shared by all repositories.
type DB struct {
	sql          *sql.DB
	queryTimeout time.Duration
}

// Open parses cfg.DSN with pgx, opens a database/sql pool on top of the pgx
// driver, warms MinConns connections and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	connCfg.ConnectTimeout = connectTimeout

	db := stdlib.OpenDB(*connCfg)
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MaxConns)
	}
	if cfg.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(cfg.IdleTimeout)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := warm(pingCtx, db, cfg.MinConns); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return New(db, cfg.QueryTimeout), nil
}

// New wraps an existing pool. Used by Open and by tests with sqlmock.
func New(db *sql.DB, queryTimeout time.Duration) *DB {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &DB{sql: db, queryTimeout: queryTimeout}
}

// warm checks out n connections at once and returns them to the pool idle.
func warm(ctx context.Context, db *sql.DB, n int) error {
	if n < 1 {
		return db.PingContext(ctx)
	}
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
		if err := c.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error { return d.sql.Close() }

// Ping reports whether a pooled connection can reach the server.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return translate(d.sql.PingContext(ctx), nil)
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.queryTimeout)
}

// snapshot runs fn in a read-only repeatable-read transaction so that every
// statement inside sees the same snapshot.
func (d *DB) snapshot(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
