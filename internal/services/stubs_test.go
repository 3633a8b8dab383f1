package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"auditline/internal/events"
	"auditline/internal/log"
	"auditline/internal/models"
	"auditline/internal/store"
	"auditline/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	createFn        func(ctx context.Context, tx store.Execer, a models.Account) error
	updateFn        func(ctx context.Context, tx store.Execer, a models.Account) (int64, error)
	deleteFn        func(ctx context.Context, tx store.Execer, userID, accountID string) (int64, error)
	getByUserFn     func(ctx context.Context, userID string) ([]models.Account, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, userID, accountID string) (models.Account, error)
	updateBalanceFn func(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error
	countRefsFn     func(ctx context.Context, tx store.Getter, accountID string) (int, error)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, a models.Account) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, a)
}

func (s stubAccountStore) Update(ctx context.Context, tx store.Execer, a models.Account) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, a)
}

func (s stubAccountStore) Delete(ctx context.Context, tx store.Execer, userID, accountID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID, accountID)
}

func (s stubAccountStore) GetByUser(ctx context.Context, userID string) ([]models.Account, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubAccountStore) GetForUpdate(ctx context.Context, tx store.Getter, userID, accountID string) (models.Account, error) {
	return s.getForUpdateFn(ctx, tx, userID, accountID)
}

func (s stubAccountStore) UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, accountID, balance)
}

func (s stubAccountStore) CountReferences(ctx context.Context, tx store.Getter, accountID string) (int, error) {
	if s.countRefsFn == nil {
		return 0, nil
	}
	return s.countRefsFn(ctx, tx, accountID)
}

type stubTransactionStore struct {
	createFn       func(ctx context.Context, tx store.Execer, t models.Transaction) error
	updateFn       func(ctx context.Context, tx store.Execer, t models.Transaction) (int64, error)
	deleteFn       func(ctx context.Context, tx store.Execer, userID, transactionID string) (int64, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, userID, transactionID string) (models.Transaction, error)
	listFn         func(ctx context.Context, userID string) ([]models.Transaction, error)
	clearGoalFn    func(ctx context.Context, tx store.Execer, userID, goalID string) error
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, t models.Transaction) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, t)
}

func (s stubTransactionStore) Update(ctx context.Context, tx store.Execer, t models.Transaction) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, t)
}

func (s stubTransactionStore) Delete(ctx context.Context, tx store.Execer, userID, transactionID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID, transactionID)
}

func (s stubTransactionStore) GetForUpdate(ctx context.Context, tx store.Getter, userID, transactionID string) (models.Transaction, error) {
	if s.getForUpdateFn == nil {
		return models.Transaction{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, userID, transactionID)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubTransactionStore) ClearGoal(ctx context.Context, tx store.Execer, userID, goalID string) error {
	if s.clearGoalFn == nil {
		return nil
	}
	return s.clearGoalFn(ctx, tx, userID, goalID)
}

type stubLedgerStore struct {
	insertFn func(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error
}

func (s stubLedgerStore) InsertEntries(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, entries)
}

type stubGoalStore struct {
	createFn       func(ctx context.Context, tx store.Execer, g models.Goal) error
	updateFn       func(ctx context.Context, tx store.Execer, g models.Goal) (int64, error)
	deleteFn       func(ctx context.Context, tx store.Execer, userID, goalID string) (int64, error)
	getByUserFn    func(ctx context.Context, userID string) ([]models.Goal, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, userID, goalID string) (models.Goal, error)
	updateSavedFn  func(ctx context.Context, tx store.Execer, goalID string, saved decimal.Decimal) error
}

func (s stubGoalStore) Create(ctx context.Context, tx store.Execer, g models.Goal) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, g)
}

func (s stubGoalStore) Update(ctx context.Context, tx store.Execer, g models.Goal) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, g)
}

func (s stubGoalStore) Delete(ctx context.Context, tx store.Execer, userID, goalID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID, goalID)
}

func (s stubGoalStore) GetByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubGoalStore) GetForUpdate(ctx context.Context, tx store.Getter, userID, goalID string) (models.Goal, error) {
	if s.getForUpdateFn == nil {
		return models.Goal{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, userID, goalID)
}

func (s stubGoalStore) UpdateSavedAmount(ctx context.Context, tx store.Execer, goalID string, saved decimal.Decimal) error {
	if s.updateSavedFn == nil {
		return nil
	}
	return s.updateSavedFn(ctx, tx, goalID, saved)
}

type stubReceivableStore struct {
	createFn       func(ctx context.Context, tx store.Execer, r models.Receivable) error
	updateFn       func(ctx context.Context, tx store.Execer, r models.Receivable) (int64, error)
	deleteFn       func(ctx context.Context, tx store.Execer, userID, receivableID string) (int64, error)
	getByUserFn    func(ctx context.Context, userID string) ([]models.Receivable, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, userID, receivableID string) (models.Receivable, error)
	setStatusFn    func(ctx context.Context, tx store.Execer, receivableID string, status models.ReceivableStatus) error
}

func (s stubReceivableStore) Create(ctx context.Context, tx store.Execer, r models.Receivable) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, r)
}

func (s stubReceivableStore) Update(ctx context.Context, tx store.Execer, r models.Receivable) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, r)
}

func (s stubReceivableStore) Delete(ctx context.Context, tx store.Execer, userID, receivableID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID, receivableID)
}

func (s stubReceivableStore) GetByUser(ctx context.Context, userID string) ([]models.Receivable, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubReceivableStore) GetForUpdate(ctx context.Context, tx store.Getter, userID, receivableID string) (models.Receivable, error) {
	if s.getForUpdateFn == nil {
		return models.Receivable{}, sql.ErrNoRows
	}
	return s.getForUpdateFn(ctx, tx, userID, receivableID)
}

func (s stubReceivableStore) SetStatus(ctx context.Context, tx store.Execer, receivableID string, status models.ReceivableStatus) error {
	if s.setStatusFn == nil {
		return nil
	}
	return s.setStatusFn(ctx, tx, receivableID, status)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	mu            sync.Mutex
	balances      []websocket.BalanceUpdate
	notifications []websocket.NotificationUpdate
	sessions      []websocket.SessionUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = append(s.balances, update)
}

func (s *stubHub) BroadcastNotification(_ string, update websocket.NotificationUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, update)
}

func (s *stubHub) BroadcastSession(_ string, update websocket.SessionUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, update)
}

type stubPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (s *stubPublisher) Publish(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

// accountsByID serves GetForUpdate from a fixed set and records lock order.
func accountsByID(locked *[]string, accounts ...models.Account) func(context.Context, store.Getter, string, string) (models.Account, error) {
	byID := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return func(_ context.Context, _ store.Getter, userID, accountID string) (models.Account, error) {
		if locked != nil {
			*locked = append(*locked, accountID)
		}
		a, ok := byID[accountID]
		if !ok || a.UserID != userID {
			return models.Account{}, sql.ErrNoRows
		}
		return a, nil
	}
}

func newTestLedgerService(stores LedgerStores, hub *stubHub, publisher *stubPublisher) *LedgerService {
	if stores.Accounts == nil {
		stores.Accounts = stubAccountStore{}
	}
	if stores.Transactions == nil {
		stores.Transactions = stubTransactionStore{}
	}
	if stores.Entries == nil {
		stores.Entries = stubLedgerStore{}
	}
	if stores.Goals == nil {
		stores.Goals = stubGoalStore{}
	}
	if stores.Receivables == nil {
		stores.Receivables = stubReceivableStore{}
	}
	if stores.Audit == nil {
		stores.Audit = stubAuditStore{}
	}
	if hub == nil {
		hub = &stubHub{}
	}
	if publisher == nil {
		publisher = &stubPublisher{}
	}
	s := NewLedgerService(fakeTxRunner{}, stores, hub, publisher, log.Discard())
	s.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return s
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func stringPtr(value string) *string { return &value }
