package store

import (
	"context"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

const goalColumns = `id, user_id, name, target_amount, saved_amount, deadline, category, color, is_pinned, created_at`

type GoalStore struct {
	db DB
}

func NewGoalStore(db DB) *GoalStore {
	return &GoalStore{db: db}
}

func (s *GoalStore) Create(ctx context.Context, tx Execer, g models.Goal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount, saved_amount, deadline, category, color, is_pinned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, g.ID, g.UserID, g.Name, g.TargetAmount, g.SavedAmount, g.Deadline, g.Category, g.Color, g.IsPinned)
	return err
}

// Update leaves saved_amount alone; contributions move it.
func (s *GoalStore) Update(ctx context.Context, tx Execer, g models.Goal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE goals
		SET name = $3, target_amount = $4, deadline = $5, category = $6, color = $7, is_pinned = $8
		WHERE id = $1 AND user_id = $2
	`, g.ID, g.UserID, g.Name, g.TargetAmount, g.Deadline, g.Category, g.Color, g.IsPinned)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *GoalStore) Delete(ctx context.Context, tx Execer, userID, goalID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *GoalStore) GetByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	rows := []models.Goal{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE user_id = $1
		ORDER BY is_pinned DESC, created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GoalStore) GetForUpdate(ctx context.Context, tx Getter, userID, goalID string) (models.Goal, error) {
	var row models.Goal
	err := tx.GetContext(ctx, &row, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, goalID, userID)
	if err != nil {
		return models.Goal{}, err
	}
	return row, nil
}

func (s *GoalStore) UpdateSavedAmount(ctx context.Context, tx Execer, goalID string, saved decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `UPDATE goals SET saved_amount = $1 WHERE id = $2`, saved, goalID)
	return err
}
