// Package ledger owns balance arithmetic: how a transaction moves money between
// accounts, how that movement is undone, and the read-only aggregates derived
// from account and transaction sets.
package ledger

import (
	"errors"
	"sort"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidType         = errors.New("unknown transaction type")
	ErrMissingAccount      = errors.New("missing required account reference")
	ErrUnexpectedAccount   = errors.New("account reference not allowed for transaction type")
	ErrSameAccount         = errors.New("transfer requires two different accounts")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrDuplicateID         = errors.New("transaction id already recorded")
)

type Class string

const (
	ClassIncome   Class = "income"
	ClassExpense  Class = "expense"
	ClassTransfer Class = "transfer"
)

var typeClasses = map[models.TransactionType]Class{
	models.TxIncome:         ClassIncome,
	models.TxSalary:         ClassIncome,
	models.TxDividend:       ClassIncome,
	models.TxBonus:          ClassIncome,
	models.TxGift:           ClassIncome,
	models.TxRental:         ClassIncome,
	models.TxInterestEarned: ClassIncome,
	models.TxExpense:        ClassExpense,
	models.TxBill:           ClassExpense,
	models.TxTax:            ClassExpense,
	models.TxLoanRepayment:  ClassExpense,
	models.TxInvestmentOut:  ClassExpense,
	models.TxSubscription:   ClassExpense,
	models.TxGroceries:      ClassExpense,
	models.TxShopping:       ClassExpense,
	models.TxOther:          ClassExpense,
	models.TxTransfer:       ClassTransfer,
}

// ClassOf reports which side(s) of a transaction a type moves money on.
func ClassOf(t models.TransactionType) (Class, bool) {
	class, ok := typeClasses[t]
	return class, ok
}

// Validate checks the amount and the account reference shape for the type.
func Validate(tx models.Transaction) error {
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	class, ok := ClassOf(tx.Type)
	if !ok {
		return ErrInvalidType
	}
	from, to := ref(tx.FromAccountID), ref(tx.ToAccountID)
	switch class {
	case ClassIncome:
		if to == "" {
			return ErrMissingAccount
		}
		if from != "" {
			return ErrUnexpectedAccount
		}
	case ClassExpense:
		if from == "" {
			return ErrMissingAccount
		}
		if to != "" {
			return ErrUnexpectedAccount
		}
	case ClassTransfer:
		if from == "" || to == "" {
			return ErrMissingAccount
		}
		if from == to {
			return ErrSameAccount
		}
	}
	return nil
}

// Delta maps an id to a signed amount.
type Delta map[string]decimal.Decimal

func (d Delta) add(id string, amount decimal.Decimal) {
	if id == "" {
		return
	}
	d[id] = d[id].Add(amount)
}

func (d Delta) compact() Delta {
	for id, amount := range d {
		if amount.IsZero() {
			delete(d, id)
		}
	}
	return d
}

// IDs returns the keys in ascending order, the order rows are locked in.
func (d Delta) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d Delta) Neg() Delta {
	out := make(Delta, len(d))
	for id, amount := range d {
		out[id] = amount.Neg()
	}
	return out
}

// Effect is the balance movement of a single transaction: the from account is
// debited and the to account credited by the amount.
func Effect(tx models.Transaction) Delta {
	d := Delta{}
	d.add(ref(tx.FromAccountID), tx.Amount.Neg())
	d.add(ref(tx.ToAccountID), tx.Amount)
	return d.compact()
}

// Diff is Effect(next) - Effect(prev); it touches at most four accounts.
func Diff(prev, next models.Transaction) Delta {
	d := Delta{}
	for id, amount := range Effect(next) {
		d.add(id, amount)
	}
	for id, amount := range Effect(prev) {
		d.add(id, amount.Neg())
	}
	return d.compact()
}

// GoalEffect is the saved-amount movement of a goal-tagged transaction.
func GoalEffect(tx models.Transaction) Delta {
	d := Delta{}
	if goalID := ref(tx.GoalID); goalID != "" {
		d.add(goalID, tx.Amount)
	}
	return d.compact()
}

func goalDiff(prev, next models.Transaction) Delta {
	d := Delta{}
	for id, amount := range GoalEffect(next) {
		d.add(id, amount)
	}
	for id, amount := range GoalEffect(prev) {
		d.add(id, amount.Neg())
	}
	return d.compact()
}

func ref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
