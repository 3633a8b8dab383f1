package handlers

import (
	"net/http"
	"strings"

	"auditline/internal/models"

	"github.com/go-chi/chi/v5"
)

type receivableRequest struct {
	AccountID   string      `json:"account_id"`
	Amount      amountField `json:"amount"`
	DueDate     string      `json:"due_date"`
	Description string      `json:"description"`
}

func (req receivableRequest) receivable(id string) (models.Receivable, error) {
	amount, err := req.Amount.positive()
	if err != nil {
		return models.Receivable{}, err
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return models.Receivable{}, err
	}
	return models.Receivable{
		ID:          id,
		AccountID:   req.AccountID,
		Amount:      amount,
		DueDate:     due,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

func (h *Handler) ListReceivables(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	receivables, err := h.deps.Receivables.GetByUser(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load receivables")
		return
	}
	respondJSON(w, http.StatusOK, receivables)
}

func (h *Handler) CreateReceivable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req receivableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := req.receivable("")
	if err != nil {
		respondFailure(w, r, err, "create receivable")
		return
	}
	created, err := h.deps.Ledger.CreateReceivable(r.Context(), userID, rec)
	if err != nil {
		respondFailure(w, r, err, "create receivable")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateReceivable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req receivableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := req.receivable(chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "update receivable")
		return
	}
	updated, err := h.deps.Ledger.UpdateReceivable(r.Context(), userID, rec)
	if err != nil {
		respondFailure(w, r, err, "update receivable")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteReceivable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Ledger.DeleteReceivable(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondFailure(w, r, err, "delete receivable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReceiveReceivable books the pending amount into its account.
func (h *Handler) ReceiveReceivable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	t, err := h.deps.Ledger.ProcessReceivable(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "receive receivable")
		return
	}
	respondJSON(w, http.StatusCreated, t)
}
