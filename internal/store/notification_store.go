package store

import (
	"context"

	"auditline/internal/models"
)

// NotificationLimit is how many notifications a user keeps.
const NotificationLimit = 50

type NotificationStore struct {
	db DB
}

func NewNotificationStore(db DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create inserts the notification and trims the user's list to the newest
// NotificationLimit rows.
func (s *NotificationStore) Create(ctx context.Context, n models.Notification) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, date, read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`, n.ID, n.UserID, n.Title, n.Message, n.Type, n.Date); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE user_id = $1
		  AND id NOT IN (
		      SELECT id FROM notifications
		      WHERE user_id = $1
		      ORDER BY date DESC, id
		      LIMIT $2
		  )
	`, n.UserID, NotificationLimit)
	return err
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows := []models.Notification{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, title, message, type, date, read
		FROM notifications
		WHERE user_id = $1
		ORDER BY date DESC, id
		LIMIT $2
	`, userID, NotificationLimit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	return err
}

func (s *NotificationStore) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	return err
}
