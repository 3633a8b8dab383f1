package store

import (
	"context"

	"auditline/internal/models"

	"github.com/google/uuid"
)

const auditColumns = `id, actor_user_id, action, entity_type, entity_id, data, created_at`

// AuditStore appends to and reads the per-user audit trail. Rows are never
// updated or deleted.
type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log writes one audit row inside tx. An empty data payload is stored as {}.
func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	if data == "" {
		data = "{}"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), actorID, action, entityType, entityID, data)
	return err
}

// List returns the actor's own audit trail, newest first.
func (s *AuditStore) List(ctx context.Context, actorID string, limit, offset int) ([]models.AuditLog, error) {
	entries := []models.AuditLog{}
	if err := s.db.SelectContext(ctx, &entries, `
		SELECT `+auditColumns+`
		FROM audit_logs
		WHERE actor_user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, actorID, limit, offset); err != nil {
		return nil, err
	}
	return entries, nil
}
