package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"auditline/internal/ledger"
	"auditline/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func sampleSnapshot() Snapshot {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	accounts := []models.Account{
		{ID: "acc-1", Name: "Main", Type: models.AccountSavings, Balance: decimal.RequireFromString("1500.5"), BankName: strPtr("Sampath")},
		{ID: "acc-2", Name: "Visa", Type: models.AccountCreditCard, Balance: decimal.RequireFromString("200"), CardLast4: strPtr("4242")},
	}
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: now,
		User:       models.User{ID: "user-1", Email: "a@b.co"},
		Settings:   models.DefaultSettings("user-1", "LKR"),
		Accounts:   accounts,
		Transactions: []models.Transaction{
			{ID: "tx-1", Date: now, Amount: decimal.RequireFromString("42"), Type: models.TxExpense, Description: "Lunch", Category: "food", FromAccountID: strPtr("acc-1")},
		},
		Goals: []models.Goal{
			{ID: "g-1", Name: "Trip", TargetAmount: decimal.NewFromInt(1000), SavedAmount: decimal.NewFromInt(250)},
		},
		Receivables: []models.Receivable{
			{ID: "r-1", AccountID: "acc-1", Amount: decimal.NewFromInt(75), DueDate: now, Status: models.ReceivablePending, Description: "Loan to Sam"},
		},
		NetWorth:     ledger.NetWorth(accounts),
		BalanceSheet: ledger.BuildBalanceSheet(accounts),
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC), "json")
	if got != "AuditLine_Backup_2026-10-16.json" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["net_worth"] != "1300.5" {
		t.Fatalf("expected net_worth 1300.5, got %v", decoded["net_worth"])
	}
	user := decoded["user"].(map[string]any)
	if _, ok := user["password_hash"]; ok {
		t.Fatal("password hash must not be exported")
	}
	if len(decoded["accounts"].([]any)) != 2 {
		t.Fatalf("expected 2 accounts, got %v", decoded["accounts"])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetAccounts, SheetTransactions, SheetGoals, SheetReceivables}
	sheets := f.GetSheetList()
	if len(sheets) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("expected sheets %v, got %v", want, sheets)
		}
	}

	cases := []struct {
		sheet, cell, want string
	}{
		{SheetSummary, "B4", "1300.50"},
		{SheetAccounts, "A1", "Name"},
		{SheetAccounts, "C2", "1500.50"},
		{SheetAccounts, "E3", "4242"},
		{SheetTransactions, "E2", "42.00"},
		{SheetTransactions, "F2", "Main"},
		{SheetGoals, "D2", "25.00"},
		{SheetReceivables, "E2", "Main"},
	}
	for _, tc := range cases {
		got, err := f.GetCellValue(tc.sheet, tc.cell)
		if err != nil {
			t.Fatalf("%s!%s: %v", tc.sheet, tc.cell, err)
		}
		if got != tc.want {
			t.Fatalf("%s!%s: expected %q, got %q", tc.sheet, tc.cell, tc.want, got)
		}
	}
}
