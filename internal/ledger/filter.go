package ledger

import (
	"errors"
	"sort"
	"strings"
	"time"

	"auditline/internal/models"
)

var ErrInvalidDateRange = errors.New("unknown date range")

type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

func ParseDateRange(raw string) (DateRange, error) {
	switch DateRange(raw) {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth:
		return DateRange(raw), nil
	}
	return "", ErrInvalidDateRange
}

// Since is the inclusive lower bound of the range, measured from local
// midnight of now. The zero time means unbounded.
func (r DateRange) Since(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case RangeToday:
		return midnight
	case RangeWeek:
		return midnight.AddDate(0, 0, -7)
	case RangeMonth:
		return midnight.AddDate(0, -1, 0)
	}
	return time.Time{}
}

type Filter struct {
	Search    string
	AccountID string
	Category  string
	Type      models.TransactionType
	Range     DateRange
}

func (f Filter) Match(tx models.Transaction, now time.Time) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Category), needle) {
			return false
		}
	}
	if f.AccountID != "" && ref(tx.FromAccountID) != f.AccountID && ref(tx.ToAccountID) != f.AccountID {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if since := f.Range.Since(now); !since.IsZero() && tx.Date.Before(since) {
		return false
	}
	return true
}

func FilterTransactions(transactions []models.Transaction, f Filter, now time.Time) []models.Transaction {
	out := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if f.Match(tx, now) {
			out = append(out, tx)
		}
	}
	return out
}

// UpcomingRecurring returns up to limit recurring expense templates, newest
// first.
func UpcomingRecurring(transactions []models.Transaction, limit int) []models.Transaction {
	out := []models.Transaction{}
	for _, tx := range transactions {
		if tx.IsRecurring && tx.Type == models.TxExpense && tx.RecurrenceSourceID == nil {
			out = append(out, tx)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func PendingReceivables(receivables []models.Receivable) []models.Receivable {
	out := []models.Receivable{}
	for _, r := range receivables {
		if r.Status == models.ReceivablePending {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func sortNewestFirst(transactions []models.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
}
