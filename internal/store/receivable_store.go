package store

import (
	"context"

	"auditline/internal/models"
)

const receivableColumns = `id, user_id, account_id, amount, due_date, status, description, created_at`

type ReceivableStore struct {
	db DB
}

func NewReceivableStore(db DB) *ReceivableStore {
	return &ReceivableStore{db: db}
}

func (s *ReceivableStore) Create(ctx context.Context, tx Execer, r models.Receivable) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO receivables (id, user_id, account_id, amount, due_date, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.UserID, r.AccountID, r.Amount, r.DueDate, r.Status, r.Description)
	return err
}

func (s *ReceivableStore) Update(ctx context.Context, tx Execer, r models.Receivable) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE receivables
		SET account_id = $3, amount = $4, due_date = $5, description = $6
		WHERE id = $1 AND user_id = $2 AND status = 'PENDING'
	`, r.ID, r.UserID, r.AccountID, r.Amount, r.DueDate, r.Description)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ReceivableStore) Delete(ctx context.Context, tx Execer, userID, receivableID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM receivables WHERE id = $1 AND user_id = $2`, receivableID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ReceivableStore) GetByUser(ctx context.Context, userID string) ([]models.Receivable, error) {
	rows := []models.Receivable{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+receivableColumns+`
		FROM receivables
		WHERE user_id = $1
		ORDER BY due_date
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReceivableStore) GetForUpdate(ctx context.Context, tx Getter, userID, receivableID string) (models.Receivable, error) {
	var row models.Receivable
	err := tx.GetContext(ctx, &row, `
		SELECT `+receivableColumns+`
		FROM receivables
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, receivableID, userID)
	if err != nil {
		return models.Receivable{}, err
	}
	return row, nil
}

func (s *ReceivableStore) SetStatus(ctx context.Context, tx Execer, receivableID string, status models.ReceivableStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE receivables SET status = $1 WHERE id = $2`, status, receivableID)
	return err
}
