package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"auditline/internal/config"
	"auditline/internal/export"
	"auditline/internal/ledger"
	"auditline/internal/models"
	"auditline/internal/services"
	"auditline/internal/store"
	"auditline/internal/websocket"

	"github.com/shopspring/decimal"
)

const (
	testUserID    = "user-1"
	testSessionID = "session-1"
	testToken     = "good-token"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type stubLedgerService struct {
	createAccountFn     func(ctx context.Context, userID string, in services.AccountInput) (models.Account, error)
	updateAccountFn     func(ctx context.Context, userID string, in services.AccountInput) (models.Account, error)
	deleteAccountFn     func(ctx context.Context, userID, accountID string) error
	recordFn            func(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error)
	updateTxFn          func(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error)
	deleteTxFn          func(ctx context.Context, userID, transactionID string) error
	createGoalFn        func(ctx context.Context, userID string, goal models.Goal) (models.Goal, error)
	updateGoalFn        func(ctx context.Context, userID string, goal models.Goal) (models.Goal, error)
	deleteGoalFn        func(ctx context.Context, userID, goalID string) error
	contributeFn        func(ctx context.Context, userID, goalID, accountID string, amount decimal.Decimal) (models.Transaction, error)
	createReceivableFn  func(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error)
	updateReceivableFn  func(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error)
	deleteReceivableFn  func(ctx context.Context, userID, receivableID string) error
	processReceivableFn func(ctx context.Context, userID, receivableID string) (models.Transaction, error)
}

func (s stubLedgerService) CreateAccount(ctx context.Context, userID string, in services.AccountInput) (models.Account, error) {
	if s.createAccountFn == nil {
		return in.Account, nil
	}
	return s.createAccountFn(ctx, userID, in)
}

func (s stubLedgerService) UpdateAccount(ctx context.Context, userID string, in services.AccountInput) (models.Account, error) {
	if s.updateAccountFn == nil {
		return in.Account, nil
	}
	return s.updateAccountFn(ctx, userID, in)
}

func (s stubLedgerService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if s.deleteAccountFn == nil {
		return nil
	}
	return s.deleteAccountFn(ctx, userID, accountID)
}

func (s stubLedgerService) RecordTransaction(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error) {
	if s.recordFn == nil {
		return t, nil
	}
	return s.recordFn(ctx, userID, t)
}

func (s stubLedgerService) UpdateTransaction(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error) {
	if s.updateTxFn == nil {
		return t, nil
	}
	return s.updateTxFn(ctx, userID, t)
}

func (s stubLedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if s.deleteTxFn == nil {
		return nil
	}
	return s.deleteTxFn(ctx, userID, transactionID)
}

func (s stubLedgerService) CreateGoal(ctx context.Context, userID string, goal models.Goal) (models.Goal, error) {
	if s.createGoalFn == nil {
		return goal, nil
	}
	return s.createGoalFn(ctx, userID, goal)
}

func (s stubLedgerService) UpdateGoal(ctx context.Context, userID string, goal models.Goal) (models.Goal, error) {
	if s.updateGoalFn == nil {
		return goal, nil
	}
	return s.updateGoalFn(ctx, userID, goal)
}

func (s stubLedgerService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if s.deleteGoalFn == nil {
		return nil
	}
	return s.deleteGoalFn(ctx, userID, goalID)
}

func (s stubLedgerService) ContributeToGoal(ctx context.Context, userID, goalID, accountID string, amount decimal.Decimal) (models.Transaction, error) {
	if s.contributeFn == nil {
		return models.Transaction{}, nil
	}
	return s.contributeFn(ctx, userID, goalID, accountID, amount)
}

func (s stubLedgerService) CreateReceivable(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error) {
	if s.createReceivableFn == nil {
		return rec, nil
	}
	return s.createReceivableFn(ctx, userID, rec)
}

func (s stubLedgerService) UpdateReceivable(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error) {
	if s.updateReceivableFn == nil {
		return rec, nil
	}
	return s.updateReceivableFn(ctx, userID, rec)
}

func (s stubLedgerService) DeleteReceivable(ctx context.Context, userID, receivableID string) error {
	if s.deleteReceivableFn == nil {
		return nil
	}
	return s.deleteReceivableFn(ctx, userID, receivableID)
}

func (s stubLedgerService) ProcessReceivable(ctx context.Context, userID, receivableID string) (models.Transaction, error) {
	if s.processReceivableFn == nil {
		return models.Transaction{}, nil
	}
	return s.processReceivableFn(ctx, userID, receivableID)
}

type stubSessionService struct {
	signUpFn        func(ctx context.Context, email, password string, meta services.SignUpMetadata) (services.AuthSession, error)
	signInFn        func(ctx context.Context, email, password string) (services.AuthSession, error)
	signOutFn       func(ctx context.Context, userID, sessionID string) error
	updateProfileFn func(ctx context.Context, userID, fullName string) (models.User, error)
}

func (s stubSessionService) SignUp(ctx context.Context, email, password string, meta services.SignUpMetadata) (services.AuthSession, error) {
	if s.signUpFn == nil {
		return services.AuthSession{}, nil
	}
	return s.signUpFn(ctx, email, password, meta)
}

func (s stubSessionService) SignInWithPassword(ctx context.Context, email, password string) (services.AuthSession, error) {
	if s.signInFn == nil {
		return services.AuthSession{}, nil
	}
	return s.signInFn(ctx, email, password)
}

func (s stubSessionService) SignOut(ctx context.Context, userID, sessionID string) error {
	if s.signOutFn == nil {
		return nil
	}
	return s.signOutFn(ctx, userID, sessionID)
}

// GetSession accepts testToken only.
func (s stubSessionService) GetSession(_ context.Context, token string) (services.AuthSession, error) {
	if token != testToken {
		return services.AuthSession{}, services.ErrSessionInactive
	}
	return services.AuthSession{
		Token:   token,
		Session: models.Session{ID: testSessionID, UserID: testUserID},
		User:    models.User{ID: testUserID},
	}, nil
}

func (s stubSessionService) UpdateProfile(ctx context.Context, userID, fullName string) (models.User, error) {
	if s.updateProfileFn == nil {
		return models.User{ID: userID, FullName: fullName}, nil
	}
	return s.updateProfileFn(ctx, userID, fullName)
}

type stubReportService struct {
	netWorthFn      func(ctx context.Context, userID string) (decimal.Decimal, error)
	balanceSheetFn  func(ctx context.Context, userID string) (ledger.BalanceSheet, error)
	profitAndLossFn func(ctx context.Context, userID string, period ledger.Period) (ledger.ProfitAndLoss, error)
	dashboardFn     func(ctx context.Context, userID string) (services.Dashboard, error)
	loanFn          func(ctx context.Context, userID, accountID string) (services.LoanReport, error)
	snapshotFn      func(ctx context.Context, userID string) (export.Snapshot, error)
}

func (s stubReportService) NetWorth(ctx context.Context, userID string) (decimal.Decimal, error) {
	if s.netWorthFn == nil {
		return decimal.Zero, nil
	}
	return s.netWorthFn(ctx, userID)
}

func (s stubReportService) BalanceSheet(ctx context.Context, userID string) (ledger.BalanceSheet, error) {
	if s.balanceSheetFn == nil {
		return ledger.BalanceSheet{}, nil
	}
	return s.balanceSheetFn(ctx, userID)
}

func (s stubReportService) ProfitAndLoss(ctx context.Context, userID string, period ledger.Period) (ledger.ProfitAndLoss, error) {
	if s.profitAndLossFn == nil {
		return ledger.ProfitAndLoss{}, nil
	}
	return s.profitAndLossFn(ctx, userID, period)
}

func (s stubReportService) Dashboard(ctx context.Context, userID string) (services.Dashboard, error) {
	if s.dashboardFn == nil {
		return services.Dashboard{}, nil
	}
	return s.dashboardFn(ctx, userID)
}

func (s stubReportService) Loan(ctx context.Context, userID, accountID string) (services.LoanReport, error) {
	if s.loanFn == nil {
		return services.LoanReport{}, nil
	}
	return s.loanFn(ctx, userID, accountID)
}

func (s stubReportService) Snapshot(ctx context.Context, userID string) (export.Snapshot, error) {
	if s.snapshotFn == nil {
		return export.Snapshot{}, nil
	}
	return s.snapshotFn(ctx, userID)
}

type stubNotificationService struct {
	listFn     func(ctx context.Context, userID string) ([]models.Notification, error)
	markReadFn func(ctx context.Context, userID string) error
	clearFn    func(ctx context.Context, userID string) error
}

func (s stubNotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubNotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if s.markReadFn == nil {
		return nil
	}
	return s.markReadFn(ctx, userID)
}

func (s stubNotificationService) Clear(ctx context.Context, userID string) error {
	if s.clearFn == nil {
		return nil
	}
	return s.clearFn(ctx, userID)
}

type stubAccountStore struct {
	getByUserFn func(ctx context.Context, userID string) ([]models.Account, error)
	getByIDFn   func(ctx context.Context, userID, accountID string) (models.Account, error)
	selfCheckFn func(ctx context.Context, userID string) ([]store.AccountBalanceSummary, error)
}

func (s stubAccountStore) GetByUser(ctx context.Context, userID string) ([]models.Account, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubAccountStore) GetByID(ctx context.Context, userID, accountID string) (models.Account, error) {
	if s.getByIDFn == nil {
		return models.Account{}, nil
	}
	return s.getByIDFn(ctx, userID, accountID)
}

func (s stubAccountStore) SelfCheck(ctx context.Context, userID string) ([]store.AccountBalanceSummary, error) {
	if s.selfCheckFn == nil {
		return nil, nil
	}
	return s.selfCheckFn(ctx, userID)
}

type stubTransactionStore struct {
	listFn    func(ctx context.Context, userID string) ([]models.Transaction, error)
	getByIDFn func(ctx context.Context, userID, transactionID string) (models.Transaction, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubTransactionStore) GetByID(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	if s.getByIDFn == nil {
		return models.Transaction{}, nil
	}
	return s.getByIDFn(ctx, userID, transactionID)
}

type stubGoalStore struct {
	getByUserFn func(ctx context.Context, userID string) ([]models.Goal, error)
}

func (s stubGoalStore) GetByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

type stubReceivableStore struct {
	getByUserFn func(ctx context.Context, userID string) ([]models.Receivable, error)
}

func (s stubReceivableStore) GetByUser(ctx context.Context, userID string) ([]models.Receivable, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

type stubLedgerStore struct {
	listFn func(ctx context.Context, userID, accountID string, limit, offset int) ([]models.LedgerEntry, error)
	sumFn  func(ctx context.Context, accountID string) (decimal.Decimal, error)
}

func (s stubLedgerStore) ListByAccount(ctx context.Context, userID, accountID string, limit, offset int) ([]models.LedgerEntry, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, accountID, limit, offset)
}

func (s stubLedgerStore) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if s.sumFn == nil {
		return decimal.Zero, nil
	}
	return s.sumFn(ctx, accountID)
}

type stubDocumentStore struct {
	createFn    func(ctx context.Context, d models.Document) error
	deleteFn    func(ctx context.Context, userID, documentID string) (int64, error)
	getByUserFn func(ctx context.Context, userID string) ([]models.Document, error)
	getByIDFn   func(ctx context.Context, userID, documentID string) (models.Document, error)
}

func (s stubDocumentStore) Create(ctx context.Context, d models.Document) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, d)
}

func (s stubDocumentStore) Delete(ctx context.Context, userID, documentID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, userID, documentID)
}

func (s stubDocumentStore) GetByUser(ctx context.Context, userID string) ([]models.Document, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubDocumentStore) GetByID(ctx context.Context, userID, documentID string) (models.Document, error) {
	if s.getByIDFn == nil {
		return models.Document{}, nil
	}
	return s.getByIDFn(ctx, userID, documentID)
}

type stubSettingsStore struct {
	getFn    func(ctx context.Context, userID string) (models.Settings, error)
	updateFn func(ctx context.Context, settings models.Settings) error
}

func (s stubSettingsStore) Get(ctx context.Context, userID string) (models.Settings, error) {
	if s.getFn == nil {
		return models.DefaultSettings(userID, "LKR"), nil
	}
	return s.getFn(ctx, userID)
}

func (s stubSettingsStore) Update(ctx context.Context, settings models.Settings) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, settings)
}

type stubUserStore struct {
	getByIDFn func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubAuditStore struct {
	listFn func(ctx context.Context, actorID string, limit, offset int) ([]models.AuditLog, error)
}

func (s stubAuditStore) List(ctx context.Context, actorID string, limit, offset int) ([]models.AuditLog, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, actorID, limit, offset)
}

// newTestHandler fills every dependency left nil with a zero stub.
func newTestHandler(deps Deps) *Handler {
	if deps.Ledger == nil {
		deps.Ledger = stubLedgerService{}
	}
	if deps.Sessions == nil {
		deps.Sessions = stubSessionService{}
	}
	if deps.Reports == nil {
		deps.Reports = stubReportService{}
	}
	if deps.Notifications == nil {
		deps.Notifications = stubNotificationService{}
	}
	if deps.Accounts == nil {
		deps.Accounts = stubAccountStore{}
	}
	if deps.Transactions == nil {
		deps.Transactions = stubTransactionStore{}
	}
	if deps.Goals == nil {
		deps.Goals = stubGoalStore{}
	}
	if deps.Receivables == nil {
		deps.Receivables = stubReceivableStore{}
	}
	if deps.Entries == nil {
		deps.Entries = stubLedgerStore{}
	}
	if deps.Documents == nil {
		deps.Documents = stubDocumentStore{}
	}
	if deps.Settings == nil {
		deps.Settings = stubSettingsStore{}
	}
	if deps.Users == nil {
		deps.Users = stubUserStore{}
	}
	if deps.Audit == nil {
		deps.Audit = stubAuditStore{}
	}
	deps.Now = func() time.Time { return testNow }
	cfg := config.Config{
		AllowedOrigins:   "*",
		MaxDocumentBytes: 64,
		DefaultCurrency:  "LKR",
	}
	return New(cfg, deps, websocket.NewHub(), nil)
}

// serve runs the request through the full router. Requests carry testToken
// unless the caller set Authorization already.
func serve(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dest); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	var payload map[string]string
	decodeResponse(t, rr, &payload)
	if payload["code"] != code {
		t.Fatalf("expected code %q, got %#v", code, payload)
	}
}

var errBoom = errors.New("boom")

func stringPtr(value string) *string {
	return &value
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
