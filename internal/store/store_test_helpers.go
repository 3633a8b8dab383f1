package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// stubDB answers every query shape through optional callbacks. A nil callback
// succeeds without touching dest.
type stubDB struct {
	getFn    func(ctx context.Context, dest any, query string, args ...any) error
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
	execFn   func(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Narrower names for call sites that only exercise one side.
type (
	stubExecer = stubDB
	stubGetter = stubDB
	stubTx     = stubDB
)

func (s stubDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.getFn != nil {
		return s.getFn(ctx, dest, query, args...)
	}
	return nil
}

func (s stubDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn != nil {
		return s.selectFn(ctx, dest, query, args...)
	}
	return nil
}

func (s stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.execFn != nil {
		return s.execFn(ctx, query, args...)
	}
	return stubResult{rows: 1}, nil
}

type stubResult struct {
	rows int64
	err  error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, r.err }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, r.err }

func mustContain(t *testing.T, query string, fragments ...string) {
	t.Helper()
	normalized := strings.Join(strings.Fields(query), " ")
	for _, fragment := range fragments {
		if !strings.Contains(normalized, fragment) {
			t.Fatalf("query missing %q: %s", fragment, normalized)
		}
	}
}

func decimalArg(t *testing.T, arg any, want string) {
	t.Helper()
	got, ok := arg.(decimal.Decimal)
	if !ok {
		t.Fatalf("expected decimal %s, got %T", want, arg)
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected decimal %s, got %s", want, got)
	}
}
