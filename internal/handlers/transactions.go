package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"auditline/internal/ledger"
	"auditline/internal/models"

	"github.com/go-chi/chi/v5"
)

type transactionRequest struct {
	Date             string      `json:"date"`
	Amount           amountField `json:"amount"`
	Description      string      `json:"description"`
	Type             string      `json:"type"`
	FromAccountID    string      `json:"from_account_id"`
	ToAccountID      string      `json:"to_account_id"`
	Category         string      `json:"category"`
	IsRecurring      bool        `json:"is_recurring"`
	RecurrencePeriod string      `json:"recurrence_period"`
	GoalID           string      `json:"goal_id"`
}

func (req transactionRequest) transaction(id string) (models.Transaction, error) {
	amount, err := req.Amount.positive()
	if err != nil {
		return models.Transaction{}, err
	}
	t := models.Transaction{
		ID:            id,
		Amount:        amount,
		Description:   strings.TrimSpace(req.Description),
		Type:          models.TransactionType(strings.ToUpper(req.Type)),
		FromAccountID: optionalString(req.FromAccountID),
		ToAccountID:   optionalString(req.ToAccountID),
		Category:      strings.TrimSpace(req.Category),
		IsRecurring:   req.IsRecurring,
		GoalID:        optionalString(req.GoalID),
	}
	if strings.TrimSpace(req.Date) != "" {
		if t.Date, err = parseDate(req.Date); err != nil {
			return models.Transaction{}, err
		}
	}
	if req.RecurrencePeriod != "" {
		period := models.RecurrencePeriod(strings.ToUpper(req.RecurrencePeriod))
		t.RecurrencePeriod = &period
	}
	return t, nil
}

// ListTransactions returns the user's transactions newest first, narrowed by
// the search, account_id, category, type and range query parameters.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	dateRange, err := ledger.ParseDateRange(query.Get("range"))
	if err != nil {
		respondFailure(w, r, err, "load transactions")
		return
	}
	filter := ledger.Filter{
		Search:    strings.TrimSpace(query.Get("search")),
		AccountID: query.Get("account_id"),
		Category:  query.Get("category"),
		Type:      models.TransactionType(strings.ToUpper(query.Get("type"))),
		Range:     dateRange,
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		respondFailure(w, r, ledger.ErrInvalidType, "load transactions")
		return
	}
	transactions, err := h.deps.Transactions.ListByUser(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load transactions")
		return
	}
	respondJSON(w, http.StatusOK, ledger.FilterTransactions(transactions, filter, h.now()))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	t, err := h.deps.Transactions.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ledger.ErrTransactionNotFound
		}
		respondFailure(w, r, err, "load transaction")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := req.transaction("")
	if err != nil {
		respondFailure(w, r, err, "record transaction")
		return
	}
	recorded, err := h.deps.Ledger.RecordTransaction(r.Context(), userID, t)
	if err != nil {
		respondFailure(w, r, err, "record transaction")
		return
	}
	respondJSON(w, http.StatusCreated, recorded)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := req.transaction(chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "update transaction")
		return
	}
	updated, err := h.deps.Ledger.UpdateTransaction(r.Context(), userID, t)
	if err != nil {
		respondFailure(w, r, err, "update transaction")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Ledger.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondFailure(w, r, err, "delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
