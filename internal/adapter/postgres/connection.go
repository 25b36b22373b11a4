package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/YelzhanWeb/tableside/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const (
	maxConns          = 8
	healthCheckPeriod = 30 * time.Second
)

// DB is the part of pgxpool the repositories need
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Begin(ctx context.Context) (Tx, error)
	Close()
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CommandTag is satisfied by pgconn.CommandTag
type CommandTag interface {
	RowsAffected() int64
}

type pool struct {
	*pgxpool.Pool
}

type tx struct {
	pgx.Tx
}

func Connect(ctx context.Context, cfg config.DatabaseConfig) (DB, error) {
	poolCfg, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolCfg.MaxConns = maxConns
	poolCfg.HealthCheckPeriod = healthCheckPeriod

	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool{p}, nil
}

func connString(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// EnsureSchema creates the projection tables when they are missing
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction and commits when it returns nil
func withTx(ctx context.Context, db DB, fn func(tx Tx) error) error {
	t, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer t.Rollback(ctx)

	if err := fn(t); err != nil {
		return err
	}
	return t.Commit(ctx)
}

func (p pool) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return p.Pool.Query(ctx, sql, args...)
}

func (p pool) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return p.Pool.Exec(ctx, sql, args...)
}

func (p pool) Begin(ctx context.Context) (Tx, error) {
	t, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx{t}, nil
}

func (t tx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return t.Tx.Exec(ctx, sql, args...)
}
