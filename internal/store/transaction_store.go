package store

import (
	"context"
	"time"

	"auditline/internal/models"
)

const transactionColumns = `id, user_id, date, amount, description, type, from_account_id, to_account_id,
	category, is_recurring, recurrence_period, goal_id, recurrence_source_id, last_recurrence_at, created_at`

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, t models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, date, amount, description, type, from_account_id, to_account_id,
			category, is_recurring, recurrence_period, goal_id, recurrence_source_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.UserID, t.Date, t.Amount, t.Description, t.Type, t.FromAccountID, t.ToAccountID,
		t.Category, t.IsRecurring, t.RecurrencePeriod, t.GoalID, t.RecurrenceSourceID,
	)
	return err
}

func (s *TransactionStore) Update(ctx context.Context, tx Execer, t models.Transaction) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET date = $3, amount = $4, description = $5, type = $6, from_account_id = $7, to_account_id = $8,
		    category = $9, is_recurring = $10, recurrence_period = $11, goal_id = $12
		WHERE id = $1 AND user_id = $2
	`, t.ID, t.UserID, t.Date, t.Amount, t.Description, t.Type, t.FromAccountID, t.ToAccountID,
		t.Category, t.IsRecurring, t.RecurrencePeriod, t.GoalID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) Delete(ctx context.Context, tx Execer, userID, transactionID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, transactionID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) GetByID(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`, transactionID, userID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, userID, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, transactionID, userID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// ListByUser returns the user's transactions newest first.
func (s *TransactionStore) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows := []models.Transaction{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecurringTemplates returns recurring transactions of every user that
// were entered by hand, not generated from another template.
func (s *TransactionStore) ListRecurringTemplates(ctx context.Context) ([]models.Transaction, error) {
	rows := []models.Transaction{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE is_recurring AND recurrence_source_id IS NULL AND recurrence_period IS NOT NULL
		ORDER BY user_id, date
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) StampRecurrence(ctx context.Context, tx Execer, transactionID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE transactions SET last_recurrence_at = $1 WHERE id = $2`, at, transactionID)
	return err
}

// ClearGoal detaches transactions from a goal that is about to be deleted.
func (s *TransactionStore) ClearGoal(ctx context.Context, tx Execer, userID, goalID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE transactions SET goal_id = NULL WHERE goal_id = $1 AND user_id = $2`, goalID, userID)
	return err
}
