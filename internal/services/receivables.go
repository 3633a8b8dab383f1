package services

import (
	"context"
	"strings"

	"auditline/internal/ledger"
	"auditline/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *LedgerService) CreateReceivable(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error) {
	rec.ID = uuid.NewString()
	rec.UserID = userID
	rec.Status = models.ReceivablePending
	if err := prepareReceivable(&rec); err != nil {
		return models.Receivable{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.stores.Accounts.GetForUpdate(ctx, tx, userID, rec.AccountID); err != nil {
			return notFound(err, ledger.ErrAccountNotFound)
		}
		if err := s.stores.Receivables.Create(ctx, tx, rec); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "create", "receivable", rec.ID, map[string]string{
			"account_id": rec.AccountID,
			"amount":     rec.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return models.Receivable{}, err
	}
	return rec, nil
}

// UpdateReceivable edits a pending receivable. Received ones are settled
// history and cannot change.
func (s *LedgerService) UpdateReceivable(ctx context.Context, userID string, rec models.Receivable) (models.Receivable, error) {
	rec.UserID = userID
	if err := prepareReceivable(&rec); err != nil {
		return models.Receivable{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.stores.Receivables.GetForUpdate(ctx, tx, userID, rec.ID)
		if err != nil {
			return notFound(err, ErrReceivableNotFound)
		}
		if current.Status == models.ReceivableReceived {
			return ErrReceivableProcessed
		}
		if _, err := s.stores.Accounts.GetForUpdate(ctx, tx, userID, rec.AccountID); err != nil {
			return notFound(err, ledger.ErrAccountNotFound)
		}
		rec.Status = current.Status
		rec.CreatedAt = current.CreatedAt
		if _, err := s.stores.Receivables.Update(ctx, tx, rec); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "update", "receivable", rec.ID, map[string]string{
			"amount": rec.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return models.Receivable{}, err
	}
	return rec, nil
}

func (s *LedgerService) DeleteReceivable(ctx context.Context, userID, receivableID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.stores.Receivables.Delete(ctx, tx, userID, receivableID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrReceivableNotFound
		}
		return s.audit(ctx, tx, userID, "delete", "receivable", receivableID, nil)
	})
}

func prepareReceivable(rec *models.Receivable) error {
	rec.Description = strings.TrimSpace(rec.Description)
	if rec.AccountID == "" || !rec.Amount.IsPositive() || rec.DueDate.IsZero() {
		return ErrInvalidReceivable
	}
	rec.Amount = rec.Amount.Round(2)
	return nil
}
