package services

import (
	"context"
	"time"

	"auditline/internal/models"
	"auditline/internal/store"
	"auditline/internal/websocket"

	"github.com/shopspring/decimal"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, a models.Account) error
	Update(ctx context.Context, tx store.Execer, a models.Account) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, accountID string) (int64, error)
	GetByUser(ctx context.Context, userID string) ([]models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID, accountID string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error
	CountReferences(ctx context.Context, tx store.Getter, accountID string) (int, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, t models.Transaction) error
	Update(ctx context.Context, tx store.Execer, t models.Transaction) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, transactionID string) (int64, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID, transactionID string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ClearGoal(ctx context.Context, tx store.Execer, userID, goalID string) error
}

type RecurringStore interface {
	ListRecurringTemplates(ctx context.Context) ([]models.Transaction, error)
	StampRecurrence(ctx context.Context, tx store.Execer, transactionID string, at time.Time) error
}

type LedgerStore interface {
	InsertEntries(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error
}

type GoalStore interface {
	Create(ctx context.Context, tx store.Execer, g models.Goal) error
	Update(ctx context.Context, tx store.Execer, g models.Goal) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, goalID string) (int64, error)
	GetByUser(ctx context.Context, userID string) ([]models.Goal, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID, goalID string) (models.Goal, error)
	UpdateSavedAmount(ctx context.Context, tx store.Execer, goalID string, saved decimal.Decimal) error
}

type ReceivableStore interface {
	Create(ctx context.Context, tx store.Execer, r models.Receivable) error
	Update(ctx context.Context, tx store.Execer, r models.Receivable) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, receivableID string) (int64, error)
	GetByUser(ctx context.Context, userID string) ([]models.Receivable, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID, receivableID string) (models.Receivable, error)
	SetStatus(ctx context.Context, tx store.Execer, receivableID string, status models.ReceivableStatus) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

type NotificationHub interface {
	BroadcastNotification(userID string, update websocket.NotificationUpdate)
}

type SessionHub interface {
	BroadcastSession(userID string, update websocket.SessionUpdate)
}
