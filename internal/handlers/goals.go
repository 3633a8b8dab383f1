package handlers

import (
	"net/http"
	"strings"

	"auditline/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type goalRequest struct {
	Name         string      `json:"name"`
	TargetAmount amountField `json:"target_amount"`
	SavedAmount  amountField `json:"saved_amount"`
	Deadline     *string     `json:"deadline"`
	Category     string      `json:"category"`
	Color        string      `json:"color"`
	IsPinned     bool        `json:"is_pinned"`
}

func (req goalRequest) goal(id string) (models.Goal, error) {
	target, err := req.TargetAmount.positive()
	if err != nil {
		return models.Goal{}, err
	}
	saved := decimal.Zero
	if req.SavedAmount.set() {
		if saved, err = req.SavedAmount.signed(); err != nil {
			return models.Goal{}, err
		}
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		return models.Goal{}, err
	}
	return models.Goal{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		TargetAmount: target,
		SavedAmount:  saved,
		Deadline:     deadline,
		Category:     strings.TrimSpace(req.Category),
		Color:        req.Color,
		IsPinned:     req.IsPinned,
	}, nil
}

type contributionRequest struct {
	AccountID string      `json:"account_id"`
	Amount    amountField `json:"amount"`
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goals, err := h.deps.Goals.GetByUser(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load goals")
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	goal, err := req.goal("")
	if err != nil {
		respondFailure(w, r, err, "create goal")
		return
	}
	created, err := h.deps.Ledger.CreateGoal(r.Context(), userID, goal)
	if err != nil {
		respondFailure(w, r, err, "create goal")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	goal, err := req.goal(chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "update goal")
		return
	}
	updated, err := h.deps.Ledger.UpdateGoal(r.Context(), userID, goal)
	if err != nil {
		respondFailure(w, r, err, "update goal")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Ledger.DeleteGoal(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondFailure(w, r, err, "delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ContributeToGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req contributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := req.Amount.positive()
	if err != nil {
		respondFailure(w, r, err, "contribute to goal")
		return
	}
	t, err := h.deps.Ledger.ContributeToGoal(r.Context(), userID, chi.URLParam(r, "id"), req.AccountID, amount)
	if err != nil {
		respondFailure(w, r, err, "contribute to goal")
		return
	}
	respondJSON(w, http.StatusCreated, t)
}
