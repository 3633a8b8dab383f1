package store

import (
	"context"
	"database/sql"
	"testing"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

func TestAccountStoreCreate(t *testing.T) {
	ctx := context.Background()
	last4 := "1111"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			mustContain(t, query, "INSERT INTO accounts", "card_last4")
			if len(args) != 23 {
				t.Fatalf("expected 23 args, got %d", len(args))
			}
			if args[0] != "acc-1" || args[1] != "user-1" || args[3] != models.AccountCreditCard {
				t.Fatalf("unexpected args: %#v", args[:4])
			}
			decimalArg(t, args[4], "-250.50")
			if ptr, ok := args[16].(*string); !ok || *ptr != "1111" {
				t.Fatalf("unexpected last4 arg: %#v", args[16])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	err := store.Create(ctx, execer, models.Account{
		ID:        "acc-1",
		UserID:    "user-1",
		Name:      "Visa",
		Type:      models.AccountCreditCard,
		Balance:   decimal.RequireFromString("-250.50"),
		CardLast4: &last4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreUpdateIsScopedAndSkipsBalance(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			mustContain(t, query, "UPDATE accounts", "WHERE id = $1 AND user_id = $2")
			if args[0] != "acc-1" || args[1] != "user-1" || args[2] != "Renamed" {
				t.Fatalf("unexpected args: %#v", args[:3])
			}
			for _, arg := range args {
				if _, ok := arg.(decimal.Decimal); ok {
					t.Fatalf("balance must not be written by Update: %#v", args)
				}
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	rows, err := store.Update(ctx, execer, models.Account{ID: "acc-1", UserID: "user-1", Name: "Renamed", Type: models.AccountSavings})
	if err != nil || rows != 1 {
		t.Fatalf("unexpected result: %d, %v", rows, err)
	}
}

func TestAccountStoreGetByUser(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "FROM accounts", "WHERE user_id = $1")
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Account) = []models.Account{{ID: "acc-1"}}
			return nil
		},
	})
	rows, err := store.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "acc-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestAccountStoreGetByIDScopesToUser(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "WHERE id = $1 AND user_id = $2")
			if len(args) != 2 || args[0] != "acc-1" || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return sql.ErrNoRows
		},
	})
	if _, err := store.GetByID(ctx, "user-1", "acc-1"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestAccountStoreGetForUpdate(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "FOR UPDATE")
			if len(args) != 2 || args[0] != "acc-1" || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.Account) = models.Account{ID: "acc-1"}
			return nil
		},
	}
	store := NewAccountStore(stubDB{})
	row, err := store.GetForUpdate(ctx, getter, "user-1", "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "acc-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestAccountStoreUpdateBalance(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			mustContain(t, query, "UPDATE accounts", "SET balance = $1")
			if len(args) != 2 || args[1] != "acc-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			decimalArg(t, args[0], "99.00")
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	if err := store.UpdateBalance(ctx, execer, "acc-1", decimal.NewFromInt(99)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreDelete(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			mustContain(t, query, "DELETE FROM accounts", "user_id = $2")
			return stubResult{rows: 0}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	rows, err := store.Delete(ctx, execer, "user-1", "acc-1")
	if err != nil || rows != 0 {
		t.Fatalf("unexpected result: %d, %v", rows, err)
	}
}

func TestAccountStoreCountReferences(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "FROM transactions", "FROM receivables")
			*dest.(*int) = 3
			return nil
		},
	}
	store := NewAccountStore(stubDB{})
	count, err := store.CountReferences(ctx, getter, "acc-1")
	if err != nil || count != 3 {
		t.Fatalf("unexpected result: %d, %v", count, err)
	}
}

func TestAccountStoreSelfCheck(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "LEFT JOIN ledger_entries", "difference")
			*dest.(*[]AccountBalanceSummary) = []AccountBalanceSummary{{ID: "acc-1", Difference: decimal.Zero}}
			return nil
		},
	})
	rows, err := store.SelfCheck(ctx, "user-1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("unexpected result: %#v, %v", rows, err)
	}
}
