package store

import (
	"context"
	"database/sql"
	"testing"

	"auditline/internal/models"
)

func TestDocumentStoreListOmitsPayload(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			mustContain(t, query, "'' AS data", "WHERE user_id = $1")
			*dest.(*[]models.Document) = []models.Document{{ID: "doc-1"}}
			return nil
		},
	})
	docs, err := store.GetByUser(ctx, "user-1")
	if err != nil || len(docs) != 1 {
		t.Fatalf("unexpected result: %#v, %v", docs, err)
	}
}

func TestDocumentStoreCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	var queries []string
	store := NewDocumentStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			queries = append(queries, query)
			return stubResult{rows: 1}, nil
		},
	})
	if err := store.Create(ctx, models.Document{ID: "doc-1", UserID: "user-1", Type: models.DocumentPDF, Data: "data:application/pdf;base64,AA=="}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows, err := store.Delete(ctx, "user-1", "doc-1")
	if err != nil || rows != 1 {
		t.Fatalf("delete: %d, %v", rows, err)
	}
	mustContain(t, queries[0], "INSERT INTO documents")
	mustContain(t, queries[1], "DELETE FROM documents", "user_id = $2")
}
