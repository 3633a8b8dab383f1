package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"auditline/internal/events"
	"auditline/internal/ledger"
	"auditline/internal/models"
)

type stubDocuments struct{ docs []models.Document }

func (s stubDocuments) GetByUser(context.Context, string) ([]models.Document, error) {
	return s.docs, nil
}

type stubNotificationStore struct {
	created  []models.Notification
	listed   []models.Notification
	read     bool
	cleared  bool
	createFn func(n models.Notification) error
}

func (s *stubNotificationStore) Create(_ context.Context, n models.Notification) error {
	if s.createFn != nil {
		if err := s.createFn(n); err != nil {
			return err
		}
	}
	s.created = append(s.created, n)
	return nil
}

func (s *stubNotificationStore) ListByUser(context.Context, string) ([]models.Notification, error) {
	return s.listed, nil
}

func (s *stubNotificationStore) MarkAllRead(context.Context, string) error {
	s.read = true
	return nil
}

func (s *stubNotificationStore) Clear(context.Context, string) error {
	s.cleared = true
	return nil
}

type stubSettingsReader struct {
	settings models.Settings
	err      error
}

func (s stubSettingsReader) Get(context.Context, string) (models.Settings, error) {
	return s.settings, s.err
}

var reportNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func reportFixture() ReportStores {
	period := models.RecurMonthly
	capital := dec("1000000")
	loan := models.Account{ID: "loan", UserID: testUser, Name: "Home loan", Type: models.AccountLoanPayable, Balance: dec("-400000")}
	loan.Capital.Decimal, loan.Capital.Valid = capital, true
	loan.InterestRate.Decimal, loan.InterestRate.Valid = dec("12"), true
	months := 12
	loan.LoanPeriodMonths = &months

	accounts := []models.Account{account("a1", "5000"), loan, {ID: "card", UserID: testUser, Type: models.AccountDebitCard, Balance: dec("999")}}
	transactions := []models.Transaction{
		{ID: "t1", Date: reportNow.AddDate(0, 0, -2), Amount: dec("300"), Type: models.TxSalary, ToAccountID: stringPtr("a1")},
		{ID: "t2", Date: reportNow.AddDate(0, 0, -40), Amount: dec("700"), Type: models.TxIncome, ToAccountID: stringPtr("a1")},
		{ID: "t3", Date: reportNow.AddDate(0, 0, -1), Amount: dec("50"), Type: models.TxExpense, FromAccountID: stringPtr("a1"), IsRecurring: true, RecurrencePeriod: &period},
	}
	return ReportStores{
		Accounts:     stubAccountStore{getByUserFn: func(context.Context, string) ([]models.Account, error) { return accounts, nil }},
		Transactions: stubTransactionStore{listFn: func(context.Context, string) ([]models.Transaction, error) { return transactions, nil }},
		Goals: stubGoalStore{getByUserFn: func(context.Context, string) ([]models.Goal, error) {
			return []models.Goal{{ID: "g1", IsPinned: true}, {ID: "g2"}}, nil
		}},
		Receivables: stubReceivableStore{getByUserFn: func(context.Context, string) ([]models.Receivable, error) {
			return []models.Receivable{
				{ID: "r1", Amount: dec("20"), Status: models.ReceivablePending},
				{ID: "r2", Amount: dec("80"), Status: models.ReceivableReceived},
			}, nil
		}},
		Documents:     stubDocuments{docs: []models.Document{{ID: "d1", Name: "Deed"}}},
		Notifications: &stubNotificationStore{},
		Users: stubUserStore{getByIDFn: func(_ context.Context, id string) (models.User, error) {
			return models.User{ID: id, Email: "a@b.co", FullName: "Ada"}, nil
		}},
		Settings: stubSettingsReader{err: sql.ErrNoRows},
	}
}

func newTestReportService(stores ReportStores) *ReportService {
	s := NewReportService(stores, nil)
	s.now = func() time.Time { return reportNow }
	return s
}

func TestNetWorthAndBalanceSheet(t *testing.T) {
	service := newTestReportService(reportFixture())
	worth, err := service.NetWorth(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !worth.Equal(dec("-395000")) {
		t.Fatalf("expected -395000, got %s", worth)
	}
	sheet, err := service.BalanceSheet(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sheet.TotalAssets.Sub(sheet.TotalLiabilities).Equal(sheet.Equity) {
		t.Fatalf("balance sheet does not balance: %+v", sheet)
	}
}

func TestProfitAndLossThisMonth(t *testing.T) {
	service := newTestReportService(reportFixture())
	pnl, err := service.ProfitAndLoss(context.Background(), testUser, ledger.PeriodThisMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pnl.Income.Equal(dec("300")) || !pnl.Expenses.Equal(dec("50")) || !pnl.Net.Equal(dec("250")) {
		t.Fatalf("unexpected p&l %+v", pnl)
	}
}

func TestDashboard(t *testing.T) {
	service := newTestReportService(reportFixture())
	d, err := service.Dashboard(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.AccountCount != 3 || len(d.Upcoming) != 1 || d.Upcoming[0].ID != "t3" {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if len(d.Recent) != 3 || d.Recent[0].ID != "t3" {
		t.Fatalf("expected newest first, got %+v", d.Recent)
	}
	if len(d.PendingReceivables) != 1 || !d.PendingTotal.Equal(dec("20")) {
		t.Fatalf("unexpected receivables %+v", d.PendingReceivables)
	}
	if len(d.PinnedGoals) != 1 || d.PinnedGoals[0].ID != "g1" {
		t.Fatalf("unexpected pinned goals %+v", d.PinnedGoals)
	}
	if d.SetupProgress != 67 {
		t.Fatalf("expected setup progress 67, got %d", d.SetupProgress)
	}
}

func TestDashboardPropagatesLoadError(t *testing.T) {
	stores := reportFixture()
	stores.Goals = stubGoalStore{getByUserFn: func(context.Context, string) ([]models.Goal, error) {
		return nil, errors.New("boom")
	}}
	if _, err := newTestReportService(stores).Dashboard(context.Background(), testUser); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetupProgress(t *testing.T) {
	full := SetupProgress(1, models.Settings{AutoEmailEnabled: true}, models.User{FullName: "Ada"})
	if full != 100 {
		t.Fatalf("expected 100, got %d", full)
	}
	if SetupProgress(0, models.Settings{}, models.User{}) != 0 {
		t.Fatal("expected 0 for a fresh user")
	}
}

func TestLoanReport(t *testing.T) {
	service := newTestReportService(reportFixture())
	report, err := service.Loan(context.Background(), testUser, "loan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Progress.Repaid.Equal(dec("600000")) || !report.Progress.RepaidPct.Equal(dec("60")) {
		t.Fatalf("unexpected progress %+v", report.Progress)
	}
	if report.EMI == nil || len(report.Schedule) != 12 {
		t.Fatalf("expected EMI and a 12 month schedule, got %+v", report)
	}
	if report.EMI.MonthlyPayment.Sub(dec("88848.79")).Abs().GreaterThan(dec("1")) {
		t.Fatalf("unexpected EMI %s", report.EMI.MonthlyPayment)
	}
	if _, err := service.Loan(context.Background(), testUser, "a1"); !errors.Is(err, ErrNotLoan) {
		t.Fatalf("expected ErrNotLoan, got %v", err)
	}
	if _, err := service.Loan(context.Background(), testUser, "nope"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	service := newTestReportService(reportFixture())
	snap, err := service.Snapshot(context.Background(), testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.User.Email != "a@b.co" || snap.Settings.Currency != "LKR" || len(snap.Documents) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.Accounts) != 3 || len(snap.Transactions) != 3 || len(snap.Goals) != 2 || len(snap.Receivables) != 2 {
		t.Fatalf("snapshot is missing rows: %+v", snap)
	}
	if !snap.ExportedAt.Equal(reportNow) || !snap.NetWorth.Equal(dec("-395000")) {
		t.Fatalf("unexpected snapshot header %v %s", snap.ExportedAt, snap.NetWorth)
	}
}

type stubRecipients struct {
	recipients []models.Settings
	marked     []string
}

func (s *stubRecipients) ListReportRecipients(context.Context) ([]models.Settings, error) {
	return s.recipients, nil
}

func (s *stubRecipients) MarkReportDispatched(_ context.Context, userID string, _ time.Time) error {
	s.marked = append(s.marked, userID)
	return nil
}

func TestReportDispatcherOncePerMonth(t *testing.T) {
	thisMonth := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	recipients := &stubRecipients{recipients: []models.Settings{
		{UserID: "fresh", ReportEmail: stringPtr("fresh@b.co")},
		{UserID: "sent", LastReportDispatch: &thisMonth},
		{UserID: "stale", LastReportDispatch: &lastMonth},
	}}
	publisher := &stubPublisher{}
	dispatcher := NewReportDispatcher(recipients, publisher, nil)

	queued, err := dispatcher.DispatchDue(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 2 || len(recipients.marked) != 2 || recipients.marked[0] != "fresh" || recipients.marked[1] != "stale" {
		t.Fatalf("unexpected dispatch %d %v", queued, recipients.marked)
	}
	if publisher.events[0].Type != events.ReportDispatchQueued || publisher.events[0].Description != "fresh@b.co" {
		t.Fatalf("unexpected event %+v", publisher.events[0])
	}
}

func TestLoanReportSkipsPlanForStoredTermOutOfRange(t *testing.T) {
	stores := reportFixture()
	huge := 1 << 40
	loan := models.Account{ID: "loan", UserID: testUser, Type: models.AccountLoanPayable, Balance: dec("-400000"), LoanPeriodMonths: &huge}
	loan.Capital.Decimal, loan.Capital.Valid = dec("1000000"), true
	loan.InterestRate.Decimal, loan.InterestRate.Valid = dec("12"), true
	stores.Accounts = stubAccountStore{getByUserFn: func(context.Context, string) ([]models.Account, error) {
		return []models.Account{loan}, nil
	}}
	report, err := newTestReportService(stores).Loan(context.Background(), testUser, "loan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.EMI != nil || report.Schedule != nil {
		t.Fatalf("expected no plan for an out of range term, got %+v", report.EMI)
	}
	if !report.Progress.Repaid.Equal(dec("600000")) {
		t.Fatalf("unexpected progress %+v", report.Progress)
	}
}
