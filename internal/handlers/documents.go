package handlers

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"auditline/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	errInvalidDocument  = errors.New("document needs a name, a pdf or image type and base64 data")
	errDocumentNotFound = errors.New("document not found")
)

type documentRequest struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Data string  `json:"data"`
	Date *string `json:"date"`
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	documents, err := h.deps.Documents.GetByUser(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load documents")
		return
	}
	respondJSON(w, http.StatusOK, documents)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	document, err := h.deps.Documents.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errDocumentNotFound
		}
		respondFailure(w, r, err, "load document")
		return
	}
	respondJSON(w, http.StatusOK, document)
}

// CreateDocument stores the payload as sent. Data URLs are accepted; the
// size limit applies to the decoded bytes.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxDocumentBytes)*4/3+4096)
	var req documentRequest
	if err := decodeBody(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	docType := models.DocumentType(strings.ToLower(req.Type))
	name := strings.TrimSpace(req.Name)
	if name == "" || !docType.IsValid() {
		respondFailure(w, r, errInvalidDocument, "upload document")
		return
	}
	size, err := decodedSize(req.Data)
	if err != nil {
		respondFailure(w, r, errInvalidDocument, "upload document")
		return
	}
	if size > h.cfg.MaxDocumentBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	date := h.now().UTC()
	if parsed, err := parseOptionalDate(req.Date); err != nil {
		respondFailure(w, r, err, "upload document")
		return
	} else if parsed != nil {
		date = *parsed
	}
	document := models.Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      docType,
		Data:      req.Data,
		Date:      date,
		CreatedAt: h.now().UTC(),
	}
	if err := h.deps.Documents.Create(r.Context(), document); err != nil {
		respondFailure(w, r, err, "upload document")
		return
	}
	document.Data = ""
	respondJSON(w, http.StatusCreated, document)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	rows, err := h.deps.Documents.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "delete document")
		return
	}
	if rows == 0 {
		respondFailure(w, r, errDocumentNotFound, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodedSize(data string) (int, error) {
	if i := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && i >= 0 {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return 0, errInvalidDocument
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return 0, err
	}
	return len(decoded), nil
}
