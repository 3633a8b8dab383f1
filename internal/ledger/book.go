package ledger

import (
	"time"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

const (
	ContributionCategory    = "invest"
	ContributionDescription = "Capital Contribution"
)

// Change is what a Book operation did: signed movements per account and per
// goal. Callers persist exactly these rows.
type Change struct {
	Accounts Delta
	Goals    Delta
}

func (c Change) Empty() bool {
	return len(c.Accounts) == 0 && len(c.Goals) == 0
}

// Book is an in-memory ledger over one user's accounts, transactions and
// goals. Every operation validates fully before mutating, so a failed call
// leaves the Book unchanged. A Book is not safe for concurrent use.
type Book struct {
	accounts     map[string]*models.Account
	accountOrder []string
	goals        map[string]*models.Goal
	transactions []models.Transaction
}

func NewBook(accounts []models.Account, transactions []models.Transaction, goals []models.Goal) *Book {
	b := &Book{
		accounts: make(map[string]*models.Account, len(accounts)),
		goals:    make(map[string]*models.Goal, len(goals)),
	}
	for i := range accounts {
		account := accounts[i]
		b.accounts[account.ID] = &account
		b.accountOrder = append(b.accountOrder, account.ID)
	}
	for i := range goals {
		goal := goals[i]
		b.goals[goal.ID] = &goal
	}
	b.transactions = append(b.transactions, transactions...)
	return b
}

func (b *Book) Account(id string) (models.Account, bool) {
	account, ok := b.accounts[id]
	if !ok {
		return models.Account{}, false
	}
	return *account, true
}

func (b *Book) Accounts() []models.Account {
	out := make([]models.Account, 0, len(b.accountOrder))
	for _, id := range b.accountOrder {
		out = append(out, *b.accounts[id])
	}
	return out
}

func (b *Book) Goal(id string) (models.Goal, bool) {
	goal, ok := b.goals[id]
	if !ok {
		return models.Goal{}, false
	}
	return *goal, true
}

func (b *Book) Transactions() []models.Transaction {
	out := make([]models.Transaction, len(b.transactions))
	copy(out, b.transactions)
	return out
}

func (b *Book) Transaction(id string) (models.Transaction, bool) {
	if i := b.indexOf(id); i >= 0 {
		return b.transactions[i], true
	}
	return models.Transaction{}, false
}

// Record appends tx and applies its effect. Every referenced account and goal
// must be present; a missing one fails the whole operation.
func (b *Book) Record(tx models.Transaction) (Change, error) {
	if err := Validate(tx); err != nil {
		return Change{}, err
	}
	if tx.ID != "" && b.indexOf(tx.ID) >= 0 {
		return Change{}, ErrDuplicateID
	}
	if err := b.checkRefs(tx); err != nil {
		return Change{}, err
	}
	change := Change{Accounts: Effect(tx), Goals: GoalEffect(tx)}
	b.transactions = append(b.transactions, tx)
	b.apply(change)
	return change, nil
}

// Delete removes the transaction and reverses its effect in the same step.
func (b *Book) Delete(id string) (models.Transaction, Change, error) {
	i := b.indexOf(id)
	if i < 0 {
		return models.Transaction{}, Change{}, ErrTransactionNotFound
	}
	tx := b.transactions[i]
	if err := b.checkRefs(tx); err != nil {
		return models.Transaction{}, Change{}, err
	}
	change := Change{Accounts: Effect(tx).Neg(), Goals: GoalEffect(tx).Neg()}
	b.transactions = append(b.transactions[:i], b.transactions[i+1:]...)
	b.apply(change)
	return tx, change, nil
}

// Update replaces the transaction with next and applies Diff(prev, next).
// next keeps the id of the transaction it replaces.
func (b *Book) Update(id string, next models.Transaction) (Change, error) {
	i := b.indexOf(id)
	if i < 0 {
		return Change{}, ErrTransactionNotFound
	}
	next.ID = id
	if err := Validate(next); err != nil {
		return Change{}, err
	}
	prev := b.transactions[i]
	if err := b.checkRefs(prev); err != nil {
		return Change{}, err
	}
	if err := b.checkRefs(next); err != nil {
		return Change{}, err
	}
	change := Change{Accounts: Diff(prev, next), Goals: goalDiff(prev, next)}
	b.transactions[i] = next
	b.apply(change)
	return change, nil
}

// Contribute moves amount from an account into a goal. The account debit and
// the goal's saved amount change together or not at all.
func (b *Book) Contribute(id, goalID, accountID string, amount decimal.Decimal, date time.Time) (models.Transaction, Change, error) {
	if _, ok := b.goals[goalID]; !ok {
		return models.Transaction{}, Change{}, ErrGoalNotFound
	}
	tx := NewContribution(id, goalID, accountID, amount, date)
	change, err := b.Record(tx)
	if err != nil {
		return models.Transaction{}, Change{}, err
	}
	return tx, change, nil
}

// NewContribution builds the expense that funds a goal from an account.
func NewContribution(id, goalID, accountID string, amount decimal.Decimal, date time.Time) models.Transaction {
	return models.Transaction{
		ID:            id,
		Date:          date,
		Amount:        amount,
		Description:   ContributionDescription,
		Type:          models.TxExpense,
		FromAccountID: &accountID,
		Category:      ContributionCategory,
		GoalID:        &goalID,
	}
}

// Replay recomputes every balance from the given opening balances plus the
// effect of every recorded transaction. Accounts absent from opening start
// at zero. The Book itself is not modified.
func (b *Book) Replay(opening map[string]decimal.Decimal) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(b.accounts))
	for id := range b.accounts {
		balances[id] = opening[id]
	}
	for _, tx := range b.transactions {
		for id, amount := range Effect(tx) {
			if _, ok := balances[id]; ok {
				balances[id] = balances[id].Add(amount)
			}
		}
	}
	return balances
}

// Balances snapshots current balances by account id.
func (b *Book) Balances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b.accounts))
	for id, account := range b.accounts {
		out[id] = account.Balance
	}
	return out
}

func (b *Book) checkRefs(tx models.Transaction) error {
	for _, id := range tx.AccountIDs() {
		if _, ok := b.accounts[id]; !ok {
			return ErrAccountNotFound
		}
	}
	if goalID := ref(tx.GoalID); goalID != "" {
		if _, ok := b.goals[goalID]; !ok {
			return ErrGoalNotFound
		}
	}
	return nil
}

func (b *Book) apply(change Change) {
	for id, amount := range change.Accounts {
		account := b.accounts[id]
		account.Balance = account.Balance.Add(amount)
	}
	for id, amount := range change.Goals {
		goal := b.goals[id]
		goal.SavedAmount = goal.SavedAmount.Add(amount)
	}
}

func (b *Book) indexOf(id string) int {
	for i := range b.transactions {
		if b.transactions[i].ID == id {
			return i
		}
	}
	return -1
}
