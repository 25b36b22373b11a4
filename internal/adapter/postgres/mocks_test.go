package postgres

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

type execCall struct {
	sql  string
	args []any
}

type mockTag int64

func (t mockTag) RowsAffected() int64 { return int64(t) }

// mockDB records statements and serves canned rows keyed by a fragment of
// the query text.
type mockDB struct {
	execs      []execCall
	execErr    error
	rows       map[string][][]any
	queryErr   error
	beginErr   error
	committed  int
	rolledBack int
}

func newMockDB() *mockDB {
	return &mockDB{rows: make(map[string][][]any)}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	for fragment, data := range m.rows {
		if strings.Contains(sql, fragment) {
			return &mockRows{data: data, pos: -1}, nil
		}
	}
	return &mockRows{pos: -1}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if m.execErr != nil {
		return nil, m.execErr
	}
	m.execs = append(m.execs, execCall{sql: sql, args: args})
	return mockTag(1), nil
}

func (m *mockDB) Begin(ctx context.Context) (Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockTx{db: m}, nil
}

func (m *mockDB) Close() {}

type mockTx struct {
	db   *mockDB
	done bool
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.done = true
	t.db.committed++
	return nil
}

// Rollback after Commit is a no-op, like pgx
func (t *mockTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.db.rolledBack++
	return nil
}

type mockRows struct {
	data [][]any
	pos  int
}

func (r *mockRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	return scanInto(r.data[r.pos], dest)
}

func (r *mockRows) Err() error { return nil }

func (r *mockRows) Close() {}

func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v).Convert(target.Type()))
	}
	return nil
}
