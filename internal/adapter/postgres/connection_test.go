package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YelzhanWeb/tableside/internal/config"
)

func TestConnString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "tableside",
		Password: "p@ss word",
		Database: "front_of_house",
	}

	parsed, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	conn := parsed.ConnConfig
	if conn.Host != cfg.Host || conn.Port != uint16(cfg.Port) {
		t.Errorf("address = %s:%d", conn.Host, conn.Port)
	}
	if conn.User != cfg.User || conn.Password != cfg.Password {
		t.Errorf("credentials = %s/%s", conn.User, conn.Password)
	}
	if conn.Database != cfg.Database {
		t.Errorf("database = %q", conn.Database)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := newMockDB()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0].sql, "CREATE TABLE IF NOT EXISTS orders") {
		t.Errorf("schema not applied: %+v", db.execs)
	}
}

func TestWithTx(t *testing.T) {
	t.Run("commitsOnSuccess", func(t *testing.T) {
		db := newMockDB()
		err := withTx(context.Background(), db, func(tx Tx) error { return nil })
		if err != nil || db.committed != 1 || db.rolledBack != 0 {
			t.Errorf("err = %v, committed = %d, rolledBack = %d", err, db.committed, db.rolledBack)
		}
	})

	t.Run("rollsBackOnError", func(t *testing.T) {
		db := newMockDB()
		boom := errors.New("boom")
		err := withTx(context.Background(), db, func(tx Tx) error { return boom })
		if !errors.Is(err, boom) || db.committed != 0 || db.rolledBack != 1 {
			t.Errorf("err = %v, committed = %d, rolledBack = %d", err, db.committed, db.rolledBack)
		}
	})

	t.Run("beginFailure", func(t *testing.T) {
		db := newMockDB()
		db.beginErr = errors.New("too many connections")
		called := false
		err := withTx(context.Background(), db, func(tx Tx) error { called = true; return nil })
		if err == nil || called {
			t.Errorf("err = %v, called = %v", err, called)
		}
	})
}
