package handlers

import (
	"context"
	"time"

	"auditline/internal/export"
	"auditline/internal/ledger"
	"auditline/internal/models"
	"auditline/internal/services"
	"auditline/internal/store"

	"github.com/shopspring/decimal"
)

type LedgerService interface {
	CreateAccount(ctx context.Context, userID string, in services.AccountInput) (models.Account, error)
	UpdateAccount(ctx context.Context, userID string, in services.AccountInput) (models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	RecordTransaction(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	CreateGoal(ctx context.Context, userID string, goal models.Goal) (models.Goal, error)
	UpdateGoal(ctx context.Context, userID string, goal models.Goal) (models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
	ContributeToGoal(ctx context.Context, userID, goalID, accountID string, amount decimal.Decimal) (models.Transaction, error)
	CreateReceivable(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error)
	UpdateReceivable(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error)
	DeleteReceivable(ctx context.Context, userID, receivableID string) error
	ProcessReceivable(ctx context.Context, userID, receivableID string) (models.Transaction, error)
}

type SessionService interface {
	SignUp(ctx context.Context, email, password string, meta services.SignUpMetadata) (services.AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (services.AuthSession, error)
	SignOut(ctx context.Context, userID, sessionID string) error
	GetSession(ctx context.Context, token string) (services.AuthSession, error)
	UpdateProfile(ctx context.Context, userID, fullName string) (models.User, error)
}

type ReportService interface {
	NetWorth(ctx context.Context, userID string) (decimal.Decimal, error)
	BalanceSheet(ctx context.Context, userID string) (ledger.BalanceSheet, error)
	ProfitAndLoss(ctx context.Context, userID string, period ledger.Period) (ledger.ProfitAndLoss, error)
	Dashboard(ctx context.Context, userID string) (services.Dashboard, error)
	Loan(ctx context.Context, userID, accountID string) (services.LoanReport, error)
	Snapshot(ctx context.Context, userID string) (export.Snapshot, error)
}

type NotificationService interface {
	List(ctx context.Context, userID string) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Clear(ctx context.Context, userID string) error
}

type AccountStore interface {
	GetByUser(ctx context.Context, userID string) ([]models.Account, error)
	GetByID(ctx context.Context, userID, accountID string) (models.Account, error)
	SelfCheck(ctx context.Context, userID string) ([]store.AccountBalanceSummary, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	GetByID(ctx context.Context, userID, transactionID string) (models.Transaction, error)
}

type GoalStore interface {
	GetByUser(ctx context.Context, userID string) ([]models.Goal, error)
}

type ReceivableStore interface {
	GetByUser(ctx context.Context, userID string) ([]models.Receivable, error)
}

type LedgerStore interface {
	ListByAccount(ctx context.Context, userID, accountID string, limit, offset int) ([]models.LedgerEntry, error)
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d models.Document) error
	Delete(ctx context.Context, userID, documentID string) (int64, error)
	GetByUser(ctx context.Context, userID string) ([]models.Document, error)
	GetByID(ctx context.Context, userID, documentID string) (models.Document, error)
}

type SettingsStore interface {
	Get(ctx context.Context, userID string) (models.Settings, error)
	Update(ctx context.Context, settings models.Settings) error
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type AuditStore interface {
	List(ctx context.Context, actorID string, limit, offset int) ([]models.AuditLog, error)
}

// Deps is everything the HTTP layer reads from or writes through.
type Deps struct {
	Ledger        LedgerService
	Sessions      SessionService
	Reports       ReportService
	Notifications NotificationService

	Accounts     AccountStore
	Transactions TransactionStore
	Goals        GoalStore
	Receivables  ReceivableStore
	Entries      LedgerStore
	Documents    DocumentStore
	Settings     SettingsStore
	Users        UserStore
	Audit        AuditStore

	Now func() time.Time
}
