package store

import (
	"context"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) InsertEntries(ctx context.Context, tx Execer, entries []LedgerEntryInput) error {
	query := `
		INSERT INTO ledger_entries (id, transaction_id, account_id, amount, description)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, entry.ID, entry.TransactionID, entry.AccountID, entry.Amount, entry.Description); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerStore) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID)
	return sum, err
}

func (s *LedgerStore) ListByAccount(ctx context.Context, userID, accountID string, limit, offset int) ([]models.LedgerEntry, error) {
	rows := []models.LedgerEntry{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT l.id, l.transaction_id, l.account_id, l.amount, l.description, l.created_at
		FROM ledger_entries l
		JOIN accounts a ON a.id = l.account_id
		WHERE l.account_id = $1 AND a.user_id = $2
		ORDER BY l.created_at DESC, l.id
		LIMIT $3 OFFSET $4
	`, accountID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LedgerEntryInput is one signed movement. TransactionID is nil for
// reversals of deleted transactions and for manual balance adjustments.
type LedgerEntryInput struct {
	ID            string
	TransactionID *string
	AccountID     string
	Amount        decimal.Decimal
	Description   string
}
