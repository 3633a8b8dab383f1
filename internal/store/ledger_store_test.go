package store

import (
	"context"
	"database/sql"
	"testing"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

func TestLedgerStoreInsertEntries(t *testing.T) {
	ctx := context.Background()
	txID := "tx"
	var seen []any
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			mustContain(t, query, "INSERT INTO ledger_entries")
			seen = append(seen, args[1])
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLedgerStore(stubDB{})
	entries := []LedgerEntryInput{
		{ID: "1", TransactionID: &txID, AccountID: "acc1", Amount: decimal.NewFromInt(100), Description: "a"},
		{ID: "2", AccountID: "acc2", Amount: decimal.NewFromInt(-100), Description: "reversal"},
	}
	if err := store.InsertEntries(ctx, execer, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(seen))
	}
	if ptr, ok := seen[1].(*string); !ok || ptr != nil {
		t.Fatalf("expected nil transaction id for reversal, got %#v", seen[1])
	}
}

func TestLedgerStoreSumByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "FROM ledger_entries")
			if len(args) != 1 || args[0] != "acc1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*decimal.Decimal) = decimal.RequireFromString("10.50")
			return nil
		},
	})
	sum, err := store.SumByAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected sum: %s", sum)
	}
}

func TestLedgerStoreListByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "JOIN accounts", "a.user_id = $2", "LIMIT $3 OFFSET $4")
			if args[0] != "acc1" || args[1] != "user-1" || args[2] != 20 || args[3] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.LedgerEntry) = []models.LedgerEntry{{ID: "e1"}}
			return nil
		},
	})
	rows, err := store.ListByAccount(ctx, "user-1", "acc1", 20, 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("unexpected result: %#v, %v", rows, err)
	}
}
