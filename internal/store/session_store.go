package store

import (
	"context"
	"time"

	"auditline/internal/models"
)

type SessionStore struct {
	db DB
}

func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, tx Execer, session models.Session) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, session.ID, session.UserID, session.ExpiresAt)
	return err
}

func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (models.Session, error) {
	var row models.Session
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
	`, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	return row, nil
}

// Revoke marks an active session revoked and reports whether one was.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET revoked_at = $1
		WHERE id = $2 AND revoked_at IS NULL
	`, at, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
