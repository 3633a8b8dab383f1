package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"auditline/internal/calculator"
	"auditline/internal/db"
	"auditline/internal/events"
	"auditline/internal/ledger"
	"auditline/internal/log"
	"auditline/internal/models"
	"auditline/internal/store"
	"auditline/internal/validator"
	"auditline/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccount      = errors.New("invalid account")
	ErrAccountInUse        = errors.New("account is referenced by transactions or receivables")
	ErrInvalidGoal         = errors.New("invalid goal")
	ErrInvalidReceivable   = errors.New("invalid receivable")
	ErrReceivableNotFound  = errors.New("receivable not found")
	ErrReceivableProcessed = errors.New("receivable already received")
	ErrInvalidRecurrence   = errors.New("recurring transactions need a valid period")
)

// AccountInput carries an account write. CardNumber is reduced to its last
// four digits and network; it is never stored. A nil Balance keeps the
// current balance on update and opens at zero on create.
type AccountInput struct {
	Account    models.Account
	CardNumber string
	Balance    *decimal.Decimal
}

// LedgerStores groups the persistence the ledger commands write through.
type LedgerStores struct {
	Accounts     AccountStore
	Transactions TransactionStore
	Entries      LedgerStore
	Goals        GoalStore
	Receivables  ReceivableStore
	Audit        AuditStore
}

// LedgerService runs every balance-changing command as one serializable
// database transaction. Websocket pushes and events go out only after commit.
type LedgerService struct {
	txRunner  db.TxRunner
	stores    LedgerStores
	hub       BalanceHub
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(txRunner db.TxRunner, stores LedgerStores, hub BalanceHub, publisher events.Publisher, logger *log.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		txRunner:  txRunner,
		stores:    stores,
		hub:       hub,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// outcome is what a committed command hands to the post-commit publisher.
type outcome struct {
	accounts []models.Account
	event    events.Event
}

func (s *LedgerService) CreateAccount(ctx context.Context, userID string, in AccountInput) (models.Account, error) {
	account := in.Account
	account.ID = uuid.NewString()
	account.UserID = userID
	account.Balance = decimal.Zero
	if in.Balance != nil {
		account.Balance = *in.Balance
	}
	if err := prepareAccount(&account, in.CardNumber); err != nil {
		return models.Account{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.stores.Accounts.Create(ctx, tx, account); err != nil {
			return err
		}
		if !account.Balance.IsZero() {
			if err := s.stores.Entries.InsertEntries(ctx, tx, []store.LedgerEntryInput{{
				ID:          uuid.NewString(),
				AccountID:   account.ID,
				Amount:      account.Balance,
				Description: "Opening balance",
			}}); err != nil {
				return err
			}
		}
		return s.audit(ctx, tx, userID, "create", "account", account.ID, map[string]string{
			"name":    account.Name,
			"type":    string(account.Type),
			"balance": account.Balance.StringFixed(2),
		})
	})
	if err != nil {
		return models.Account{}, err
	}
	e := events.New(events.AccountCreated, userID, "account", account.ID)
	e.Amount = account.Balance.StringFixed(2)
	e.Description = account.Name
	s.afterCommit(ctx, userID, outcome{accounts: []models.Account{account}, event: e})
	return account, nil
}

// UpdateAccount rewrites the account's details. A changed balance is booked
// as an adjustment entry for the difference.
func (s *LedgerService) UpdateAccount(ctx context.Context, userID string, in AccountInput) (models.Account, error) {
	account := in.Account
	account.UserID = userID
	if in.Balance != nil {
		account.Balance = *in.Balance
	}
	if err := prepareAccount(&account, in.CardNumber); err != nil {
		return models.Account{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.stores.Accounts.GetForUpdate(ctx, tx, userID, account.ID)
		if err != nil {
			return notFound(err, ledger.ErrAccountNotFound)
		}
		if in.CardNumber == "" {
			account.CardLast4, account.CardNetwork = current.CardLast4, current.CardNetwork
		}
		if in.Balance == nil {
			account.Balance = current.Balance
		}
		account.CreatedAt = current.CreatedAt
		if _, err := s.stores.Accounts.Update(ctx, tx, account); err != nil {
			return err
		}
		delta := account.Balance.Sub(current.Balance)
		if !delta.IsZero() {
			if err := s.stores.Accounts.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
				return err
			}
			if err := s.stores.Entries.InsertEntries(ctx, tx, []store.LedgerEntryInput{{
				ID:          uuid.NewString(),
				AccountID:   account.ID,
				Amount:      delta,
				Description: "Balance adjustment",
			}}); err != nil {
				return err
			}
		}
		return s.audit(ctx, tx, userID, "update", "account", account.ID, map[string]string{
			"name":       account.Name,
			"adjustment": delta.StringFixed(2),
		})
	})
	if err != nil {
		return models.Account{}, err
	}
	s.afterCommit(ctx, userID, outcome{
		accounts: []models.Account{account},
		event:    events.New(events.AccountUpdated, userID, "account", account.ID),
	})
	return account, nil
}

// DeleteAccount refuses accounts that transactions or receivables still
// reference, so history never points at a missing account.
func (s *LedgerService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.stores.Accounts.GetForUpdate(ctx, tx, userID, accountID); err != nil {
			return notFound(err, ledger.ErrAccountNotFound)
		}
		refs, err := s.stores.Accounts.CountReferences(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrAccountInUse
		}
		if _, err := s.stores.Accounts.Delete(ctx, tx, userID, accountID); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "delete", "account", accountID, nil)
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, userID, outcome{event: events.New(events.AccountDeleted, userID, "account", accountID)})
	return nil
}

// RecordTransaction appends t and applies its balance effect atomically.
func (s *LedgerService) RecordTransaction(ctx context.Context, userID string, t models.Transaction) (models.Transaction, error) {
	return s.record(ctx, userID, t, events.TransactionRecorded, nil)
}

func (s *LedgerService) record(ctx context.Context, userID string, t models.Transaction, eventType events.Type, inTx func(tx *sqlx.Tx, recorded models.Transaction) error) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.UserID = userID
	if t.Date.IsZero() {
		t.Date = s.now().UTC()
	}
	if err := ledger.Validate(t); err != nil {
		return models.Transaction{}, err
	}
	if t.IsRecurring && (t.RecurrencePeriod == nil || !t.RecurrencePeriod.IsValid()) {
		return models.Transaction{}, ErrInvalidRecurrence
	}
	var touched []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		book, err := s.lockBook(ctx, tx, userID, nil, t.AccountIDs(), goalIDs(t))
		if err != nil {
			return err
		}
		change, err := book.Record(t)
		if err != nil {
			return err
		}
		if err := s.stores.Transactions.Create(ctx, tx, t); err != nil {
			return err
		}
		touched, err = s.persist(ctx, tx, book, change, &t.ID, entryDescription(t))
		if err != nil {
			return err
		}
		if inTx != nil {
			if err := inTx(tx, t); err != nil {
				return err
			}
		}
		return s.audit(ctx, tx, userID, "record", "transaction", t.ID, transactionAudit(t))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	e := events.New(eventType, userID, "transaction", t.ID)
	e.Amount = t.Amount.StringFixed(2)
	e.Description = t.Description
	s.afterCommit(ctx, userID, outcome{accounts: touched, event: e})
	return t, nil
}

// UpdateTransaction replaces a transaction and applies only the difference
// between the old and new effects.
func (s *LedgerService) UpdateTransaction(ctx context.Context, userID string, next models.Transaction) (models.Transaction, error) {
	next.UserID = userID
	if err := ledger.Validate(next); err != nil {
		return models.Transaction{}, err
	}
	if next.IsRecurring && (next.RecurrencePeriod == nil || !next.RecurrencePeriod.IsValid()) {
		return models.Transaction{}, ErrInvalidRecurrence
	}
	var touched []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		prev, err := s.stores.Transactions.GetForUpdate(ctx, tx, userID, next.ID)
		if err != nil {
			return notFound(err, ledger.ErrTransactionNotFound)
		}
		if next.Date.IsZero() {
			next.Date = prev.Date
		}
		next.CreatedAt = prev.CreatedAt
		next.RecurrenceSourceID = prev.RecurrenceSourceID
		next.LastRecurrenceAt = prev.LastRecurrenceAt
		accountIDs := append(prev.AccountIDs(), next.AccountIDs()...)
		book, err := s.lockBook(ctx, tx, userID, []models.Transaction{prev}, accountIDs, append(goalIDs(prev), goalIDs(next)...))
		if err != nil {
			return err
		}
		change, err := book.Update(prev.ID, next)
		if err != nil {
			return err
		}
		if _, err := s.stores.Transactions.Update(ctx, tx, next); err != nil {
			return err
		}
		touched, err = s.persist(ctx, tx, book, change, &next.ID, "Adjustment: "+entryDescription(next))
		if err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "update", "transaction", next.ID, transactionAudit(next))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	e := events.New(events.TransactionUpdated, userID, "transaction", next.ID)
	e.Amount = next.Amount.StringFixed(2)
	e.Description = next.Description
	s.afterCommit(ctx, userID, outcome{accounts: touched, event: e})
	return next, nil
}

// DeleteTransaction removes a transaction and reverses its effect on
// balances and on a funded goal in the same database transaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	var touched []models.Account
	var deleted models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		prev, err := s.stores.Transactions.GetForUpdate(ctx, tx, userID, transactionID)
		if err != nil {
			return notFound(err, ledger.ErrTransactionNotFound)
		}
		book, err := s.lockBook(ctx, tx, userID, []models.Transaction{prev}, prev.AccountIDs(), goalIDs(prev))
		if err != nil {
			return err
		}
		removed, change, err := book.Delete(prev.ID)
		if err != nil {
			return err
		}
		deleted = removed
		touched, err = s.persist(ctx, tx, book, change, nil, "Reversal: "+entryDescription(removed))
		if err != nil {
			return err
		}
		if _, err := s.stores.Transactions.Delete(ctx, tx, userID, transactionID); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "delete", "transaction", transactionID, transactionAudit(removed))
	})
	if err != nil {
		return err
	}
	e := events.New(events.TransactionDeleted, userID, "transaction", transactionID)
	e.Amount = deleted.Amount.StringFixed(2)
	e.Description = deleted.Description
	s.afterCommit(ctx, userID, outcome{accounts: touched, event: e})
	return nil
}

// ContributeToGoal debits the account and credits the goal's saved amount
// as one unit.
func (s *LedgerService) ContributeToGoal(ctx context.Context, userID, goalID, accountID string, amount decimal.Decimal) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, ledger.ErrInvalidAmount
	}
	var contribution models.Transaction
	var touched []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		book, err := s.lockBook(ctx, tx, userID, nil, []string{accountID}, []string{goalID})
		if err != nil {
			return err
		}
		t, change, err := book.Contribute(uuid.NewString(), goalID, accountID, amount, s.now().UTC())
		if err != nil {
			return err
		}
		t.UserID = userID
		contribution = t
		if err := s.stores.Transactions.Create(ctx, tx, t); err != nil {
			return err
		}
		touched, err = s.persist(ctx, tx, book, change, &t.ID, entryDescription(t))
		if err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "contribute", "goal", goalID, map[string]string{
			"transaction_id": t.ID,
			"account_id":     accountID,
			"amount":         amount.StringFixed(2),
		})
	})
	if err != nil {
		return models.Transaction{}, err
	}
	e := events.New(events.GoalContributed, userID, "goal", goalID)
	e.Amount = amount.StringFixed(2)
	e.Description = contribution.Description
	s.afterCommit(ctx, userID, outcome{accounts: touched, event: e})
	return contribution, nil
}

// ProcessReceivable marks a pending receivable received and books the
// matching income into its account.
func (s *LedgerService) ProcessReceivable(ctx context.Context, userID, receivableID string) (models.Transaction, error) {
	var income models.Transaction
	var touched []models.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rec, err := s.stores.Receivables.GetForUpdate(ctx, tx, userID, receivableID)
		if err != nil {
			return notFound(err, ErrReceivableNotFound)
		}
		if rec.Status == models.ReceivableReceived {
			return ErrReceivableProcessed
		}
		accountID := rec.AccountID
		income = models.Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			Date:        s.now().UTC(),
			Amount:      rec.Amount,
			Description: receivableDescription(rec),
			Type:        models.TxIncome,
			ToAccountID: &accountID,
			Category:    "receivable",
		}
		book, err := s.lockBook(ctx, tx, userID, nil, income.AccountIDs(), nil)
		if err != nil {
			return err
		}
		change, err := book.Record(income)
		if err != nil {
			return err
		}
		if err := s.stores.Transactions.Create(ctx, tx, income); err != nil {
			return err
		}
		touched, err = s.persist(ctx, tx, book, change, &income.ID, income.Description)
		if err != nil {
			return err
		}
		if err := s.stores.Receivables.SetStatus(ctx, tx, rec.ID, models.ReceivableReceived); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "receive", "receivable", rec.ID, map[string]string{
			"transaction_id": income.ID,
			"amount":         rec.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return models.Transaction{}, err
	}
	e := events.New(events.ReceivableReceived, userID, "receivable", receivableID)
	e.Amount = income.Amount.StringFixed(2)
	e.Description = income.Description
	s.afterCommit(ctx, userID, outcome{accounts: touched, event: e})
	return income, nil
}

// lockBook locks the referenced accounts and goals in id order and loads
// them into a Book together with the given transactions.
func (s *LedgerService) lockBook(ctx context.Context, tx store.Getter, userID string, txs []models.Transaction, accountIDs, goalIDs []string) (*ledger.Book, error) {
	var accounts []models.Account
	for _, id := range sortedUnique(accountIDs) {
		account, err := s.stores.Accounts.GetForUpdate(ctx, tx, userID, id)
		if err != nil {
			return nil, notFound(err, ledger.ErrAccountNotFound)
		}
		accounts = append(accounts, account)
	}
	var goals []models.Goal
	for _, id := range sortedUnique(goalIDs) {
		goal, err := s.stores.Goals.GetForUpdate(ctx, tx, userID, id)
		if err != nil {
			return nil, notFound(err, ledger.ErrGoalNotFound)
		}
		goals = append(goals, goal)
	}
	return ledger.NewBook(accounts, txs, goals), nil
}

// persist writes the balances and saved amounts the change touched and one
// ledger entry per moved account.
func (s *LedgerService) persist(ctx context.Context, tx store.Execer, book *ledger.Book, change ledger.Change, transactionID *string, description string) ([]models.Account, error) {
	ids := change.Accounts.IDs()
	touched := make([]models.Account, 0, len(ids))
	entries := make([]store.LedgerEntryInput, 0, len(ids))
	for _, id := range ids {
		account, _ := book.Account(id)
		if err := s.stores.Accounts.UpdateBalance(ctx, tx, id, account.Balance); err != nil {
			return nil, err
		}
		entries = append(entries, store.LedgerEntryInput{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     id,
			Amount:        change.Accounts[id],
			Description:   description,
		})
		touched = append(touched, account)
	}
	if len(entries) > 0 {
		if err := s.stores.Entries.InsertEntries(ctx, tx, entries); err != nil {
			return nil, err
		}
	}
	for _, id := range change.Goals.IDs() {
		goal, _ := book.Goal(id)
		if err := s.stores.Goals.UpdateSavedAmount(ctx, tx, id, goal.SavedAmount); err != nil {
			return nil, err
		}
	}
	return touched, nil
}

func (s *LedgerService) audit(ctx context.Context, tx store.Execer, userID, action, entityType, entityID string, data map[string]string) error {
	if data == nil {
		data = map[string]string{}
	}
	payload, _ := json.Marshal(data)
	return s.stores.Audit.Log(ctx, tx, userID, action, entityType, entityID, string(payload))
}

func (s *LedgerService) afterCommit(ctx context.Context, userID string, out outcome) {
	if s.hub != nil {
		for _, account := range out.accounts {
			s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
				AccountID: account.ID,
				Name:      account.Name,
				Balance:   account.Balance.StringFixed(2),
			})
		}
	}
	if out.event.Type == "" {
		return
	}
	if err := s.publisher.Publish(ctx, out.event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			log.FieldEvent, out.event.Type,
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}

// prepareAccount validates the account and reduces a card number to the
// parts that are kept.
func prepareAccount(account *models.Account, cardNumber string) error {
	account.Name = strings.TrimSpace(account.Name)
	if validator.ValidateName(account.Name) != nil || !account.Type.IsValid() {
		return ErrInvalidAccount
	}
	if account.InterestClaimFrequency != nil && !account.InterestClaimFrequency.IsValid() {
		return ErrInvalidAccount
	}
	if account.LoanPeriodMonths != nil {
		if err := calculator.ValidateTerm(*account.LoanPeriodMonths); err != nil {
			return err
		}
	}
	if g := account.GracePeriodMonths; g != nil && (*g < 0 || *g > calculator.MaxTermMonths) {
		return calculator.ErrInvalidTerm
	}
	if account.CardExpiry != nil && *account.CardExpiry != "" {
		if err := validator.ValidateCardExpiry(*account.CardExpiry); err != nil {
			return err
		}
	}
	if cardNumber != "" {
		number, err := validator.NormalizeCardNumber(cardNumber)
		if err != nil {
			return err
		}
		last4 := number[len(number)-4:]
		network := models.NetworkForCard(number)
		account.CardLast4 = &last4
		account.CardNetwork = &network
	}
	if account.CardNetwork != nil && !account.CardNetwork.IsValid() {
		return ErrInvalidAccount
	}
	account.Balance = account.Balance.Round(2)
	return nil
}

// notFound maps a missing row to the domain error and passes anything else.
func notFound(err, domain error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain
	}
	return err
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func goalIDs(t models.Transaction) []string {
	if t.GoalID == nil || *t.GoalID == "" {
		return nil
	}
	return []string{*t.GoalID}
}

func entryDescription(t models.Transaction) string {
	if t.Description != "" {
		return t.Description
	}
	return string(t.Type)
}

func receivableDescription(r models.Receivable) string {
	if r.Description == "" {
		return "Receivable received"
	}
	return "Received: " + r.Description
}

func transactionAudit(t models.Transaction) map[string]string {
	data := map[string]string{
		"type":   string(t.Type),
		"amount": t.Amount.StringFixed(2),
	}
	if t.FromAccountID != nil {
		data["from_account_id"] = *t.FromAccountID
	}
	if t.ToAccountID != nil {
		data["to_account_id"] = *t.ToAccountID
	}
	if t.GoalID != nil {
		data["goal_id"] = *t.GoalID
	}
	return data
}
