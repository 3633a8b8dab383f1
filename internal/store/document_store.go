package store

import (
	"context"

	"auditline/internal/models"
)

type DocumentStore struct {
	db DB
}

func NewDocumentStore(db DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Create(ctx context.Context, d models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, name, type, data, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.UserID, d.Name, d.Type, d.Data, d.Date)
	return err
}

func (s *DocumentStore) Delete(ctx context.Context, userID, documentID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetByUser lists documents without their payload.
func (s *DocumentStore) GetByUser(ctx context.Context, userID string) ([]models.Document, error) {
	rows := []models.Document{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, name, type, '' AS data, date, created_at
		FROM documents
		WHERE user_id = $1
		ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DocumentStore) GetByID(ctx context.Context, userID, documentID string) (models.Document, error) {
	var row models.Document
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, name, type, data, date, created_at
		FROM documents
		WHERE id = $1 AND user_id = $2
	`, documentID, userID)
	if err != nil {
		return models.Document{}, err
	}
	return row, nil
}
