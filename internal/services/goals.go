package services

import (
	"context"
	"strings"

	"auditline/internal/ledger"
	"auditline/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *LedgerService) CreateGoal(ctx context.Context, userID string, goal models.Goal) (models.Goal, error) {
	goal.ID = uuid.NewString()
	goal.UserID = userID
	if err := prepareGoal(&goal); err != nil {
		return models.Goal{}, err
	}
	if goal.SavedAmount.IsNegative() {
		return models.Goal{}, ErrInvalidGoal
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.stores.Goals.Create(ctx, tx, goal); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "create", "goal", goal.ID, map[string]string{
			"name":   goal.Name,
			"target": goal.TargetAmount.StringFixed(2),
		})
	})
	if err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// UpdateGoal edits the goal's description and target. The saved amount only
// moves through contributions.
func (s *LedgerService) UpdateGoal(ctx context.Context, userID string, goal models.Goal) (models.Goal, error) {
	goal.UserID = userID
	if err := prepareGoal(&goal); err != nil {
		return models.Goal{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.stores.Goals.GetForUpdate(ctx, tx, userID, goal.ID)
		if err != nil {
			return notFound(err, ledger.ErrGoalNotFound)
		}
		goal.SavedAmount = current.SavedAmount
		goal.CreatedAt = current.CreatedAt
		if _, err := s.stores.Goals.Update(ctx, tx, goal); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "update", "goal", goal.ID, map[string]string{
			"name":   goal.Name,
			"target": goal.TargetAmount.StringFixed(2),
		})
	})
	if err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// DeleteGoal detaches the goal's contributions, which stay on record as
// plain expenses, and removes the goal.
func (s *LedgerService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.stores.Goals.GetForUpdate(ctx, tx, userID, goalID); err != nil {
			return notFound(err, ledger.ErrGoalNotFound)
		}
		if err := s.stores.Transactions.ClearGoal(ctx, tx, userID, goalID); err != nil {
			return err
		}
		if _, err := s.stores.Goals.Delete(ctx, tx, userID, goalID); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "delete", "goal", goalID, nil)
	})
}

func prepareGoal(goal *models.Goal) error {
	goal.Name = strings.TrimSpace(goal.Name)
	if goal.Name == "" || !goal.TargetAmount.IsPositive() {
		return ErrInvalidGoal
	}
	goal.TargetAmount = goal.TargetAmount.Round(2)
	goal.SavedAmount = goal.SavedAmount.Round(2)
	return nil
}
