package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"auditline/internal/ledger"
	"auditline/internal/models"
)

func TestListTransactionsFilters(t *testing.T) {
	handler := newTestHandler(Deps{Transactions: stubTransactionStore{
		listFn: func(context.Context, string) ([]models.Transaction, error) {
			return []models.Transaction{
				{ID: "t-1", Type: models.TxGroceries, Description: "Keells groceries", Category: "food", Date: testNow.AddDate(0, 0, -1)},
				{ID: "t-2", Type: models.TxGroceries, Description: "Cargills groceries", Category: "food", Date: testNow.AddDate(0, -2, 0)},
				{ID: "t-3", Type: models.TxSalary, Description: "Salary", Category: "salary", Date: testNow.AddDate(0, 0, -2)},
			}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/transactions?search=GROCER&type=groceries&range=month", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload []models.Transaction
	decodeResponse(t, rr, &payload)
	if len(payload) != 1 || payload[0].ID != "t-1" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestListTransactionsBadFilters(t *testing.T) {
	handler := newTestHandler(Deps{})
	expectError(t, serve(t, handler, http.MethodGet, "/transactions?range=decade", nil), http.StatusBadRequest, "invalid_range")
	expectError(t, serve(t, handler, http.MethodGet, "/transactions?type=lottery", nil), http.StatusBadRequest, "invalid_type")
}

func TestCreateTransaction(t *testing.T) {
	var got models.Transaction
	handler := newTestHandler(Deps{Ledger: stubLedgerService{
		recordFn: func(_ context.Context, userID string, tx models.Transaction) (models.Transaction, error) {
			if userID != testUserID {
				t.Fatalf("unexpected user %q", userID)
			}
			got = tx
			tx.ID = "t-new"
			return tx, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/transactions", map[string]any{
		"amount":            "1,250.50",
		"type":              "transfer",
		"description":       "  Savings sweep ",
		"from_account_id":   "acc-1",
		"to_account_id":     "acc-2",
		"date":              "2026-03-01",
		"is_recurring":      true,
		"recurrence_period": "monthly",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !got.Amount.Equal(dec("1250.50")) || got.Type != models.TxTransfer || got.Description != "Savings sweep" {
		t.Fatalf("unexpected transaction: %#v", got)
	}
	if got.RecurrencePeriod == nil || *got.RecurrencePeriod != models.RecurMonthly {
		t.Fatalf("unexpected recurrence: %v", got.RecurrencePeriod)
	}
	if !got.Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", got.Date)
	}
	if got.GoalID != nil {
		t.Fatalf("expected no goal, got %v", *got.GoalID)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	called := false
	handler := newTestHandler(Deps{Ledger: stubLedgerService{
		recordFn: func(_ context.Context, _ string, tx models.Transaction) (models.Transaction, error) {
			called = true
			return tx, nil
		},
	}})
	cases := []struct {
		body map[string]any
		code string
	}{
		{map[string]any{"amount": "0", "type": "EXPENSE"}, "invalid_amount"},
		{map[string]any{"amount": -5, "type": "EXPENSE"}, "invalid_amount"},
		{map[string]any{"amount": "abc", "type": "EXPENSE"}, "invalid_amount"},
		{map[string]any{"amount": "10", "type": "EXPENSE", "date": "yesterday"}, "invalid_date"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			expectError(t, serve(t, handler, http.MethodPost, "/transactions", tc.body), http.StatusBadRequest, tc.code)
		})
	}
	if called {
		t.Fatal("ledger must not be called for invalid input")
	}
}

func TestCreateTransactionLedgerErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ledger.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
		{ledger.ErrSameAccount, http.StatusBadRequest, "same_account"},
		{ledger.ErrMissingAccount, http.StatusBadRequest, "missing_account"},
		{fmt.Errorf("lock: %w", ledger.ErrGoalNotFound), http.StatusNotFound, "goal_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			handler := newTestHandler(Deps{Ledger: stubLedgerService{
				recordFn: func(context.Context, string, models.Transaction) (models.Transaction, error) {
					return models.Transaction{}, tc.err
				},
			}})
			rr := serve(t, handler, http.MethodPost, "/transactions", map[string]any{"amount": "10", "type": "EXPENSE"})
			expectError(t, rr, tc.status, tc.code)
		})
	}
}

func TestInternalErrorsHideDetail(t *testing.T) {
	handler := newTestHandler(Deps{Ledger: stubLedgerService{
		recordFn: func(context.Context, string, models.Transaction) (models.Transaction, error) {
			return models.Transaction{}, fmt.Errorf("pq: connection refused to 10.0.0.3")
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/transactions", map[string]any{"amount": "10", "type": "EXPENSE"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "10.0.0.3") {
		t.Fatalf("internal detail leaked: %s", rr.Body.String())
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	var updatedID, deletedID string
	handler := newTestHandler(Deps{Ledger: stubLedgerService{
		updateTxFn: func(_ context.Context, _ string, tx models.Transaction) (models.Transaction, error) {
			updatedID = tx.ID
			return tx, nil
		},
		deleteTxFn: func(_ context.Context, _, id string) error {
			deletedID = id
			return nil
		},
	}})
	rr := serve(t, handler, http.MethodPut, "/transactions/t-1", map[string]any{"amount": 20, "type": "EXPENSE", "from_account_id": "acc-1"})
	if rr.Code != http.StatusOK || updatedID != "t-1" {
		t.Fatalf("unexpected update: %d %q", rr.Code, updatedID)
	}
	rr = serve(t, handler, http.MethodDelete, "/transactions/t-1", nil)
	if rr.Code != http.StatusNoContent || deletedID != "t-1" {
		t.Fatalf("unexpected delete: %d %q", rr.Code, deletedID)
	}
}

func TestDeleteMissingTransaction(t *testing.T) {
	handler := newTestHandler(Deps{Ledger: stubLedgerService{
		deleteTxFn: func(context.Context, string, string) error { return ledger.ErrTransactionNotFound },
	}})
	expectError(t, serve(t, handler, http.MethodDelete, "/transactions/t-9", nil), http.StatusNotFound, "transaction_not_found")
}
