package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"auditline/internal/calculator"
	"auditline/internal/ledger"
	"auditline/internal/models"
	"auditline/internal/services"

	"github.com/go-chi/chi/v5"
)

type accountRequest struct {
	Name                   string      `json:"name"`
	Type                   string      `json:"type"`
	Balance                amountField `json:"balance"`
	AccountNumber          string      `json:"account_number"`
	BankName               string      `json:"bank_name"`
	InterestRate           amountField `json:"interest_rate"`
	InterestClaimFrequency string      `json:"interest_claim_frequency"`
	MaturityDate           *string     `json:"maturity_date"`
	Capital                amountField `json:"capital"`
	LoanPeriodMonths       *int        `json:"loan_period_months"`
	GracePeriodMonths      *int        `json:"grace_period_months"`
	StartDate              *string     `json:"start_date"`
	InstallmentAmount      amountField `json:"installment_amount"`
	CardNumber             string      `json:"card_number"`
	CardHolder             string      `json:"card_holder"`
	CardExpiry             string      `json:"card_expiry"`
	ColorGradient          string      `json:"color_gradient"`
	ColorStart             string      `json:"color_start"`
	ColorEnd               string      `json:"color_end"`
	LogoType               string      `json:"logo_type"`
}

func (req accountRequest) input(id string) (services.AccountInput, error) {
	account := models.Account{
		ID:                id,
		Name:              req.Name,
		Type:              models.AccountType(req.Type),
		AccountNumber:     optionalString(req.AccountNumber),
		BankName:          optionalString(req.BankName),
		LoanPeriodMonths:  req.LoanPeriodMonths,
		GracePeriodMonths: req.GracePeriodMonths,
		CardHolder:        optionalString(req.CardHolder),
		CardExpiry:        optionalString(req.CardExpiry),
		ColorGradient:     optionalString(req.ColorGradient),
		ColorStart:        optionalString(req.ColorStart),
		ColorEnd:          optionalString(req.ColorEnd),
		LogoType:          optionalString(req.LogoType),
	}
	if req.LoanPeriodMonths != nil {
		if err := calculator.ValidateTerm(*req.LoanPeriodMonths); err != nil {
			return services.AccountInput{}, err
		}
	}
	if g := req.GracePeriodMonths; g != nil && (*g < 0 || *g > calculator.MaxTermMonths) {
		return services.AccountInput{}, calculator.ErrInvalidTerm
	}
	if req.InterestClaimFrequency != "" {
		frequency := models.InterestFrequency(req.InterestClaimFrequency)
		account.InterestClaimFrequency = &frequency
	}
	var err error
	if account.InterestRate, err = req.InterestRate.optional(); err != nil {
		return services.AccountInput{}, err
	}
	if account.Capital, err = req.Capital.optional(); err != nil {
		return services.AccountInput{}, err
	}
	if account.InstallmentAmount, err = req.InstallmentAmount.optional(); err != nil {
		return services.AccountInput{}, err
	}
	if account.MaturityDate, err = parseOptionalDate(req.MaturityDate); err != nil {
		return services.AccountInput{}, err
	}
	if account.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		return services.AccountInput{}, err
	}
	in := services.AccountInput{Account: account, CardNumber: req.CardNumber}
	if req.Balance.set() {
		balance, err := req.Balance.signed()
		if err != nil {
			return services.AccountInput{}, err
		}
		in.Balance = &balance
	}
	return in, nil
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	accounts, err := h.deps.Accounts.GetByUser(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load accounts")
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	account, err := h.deps.Accounts.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, accountLookup(err), "load account")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input("")
	if err != nil {
		respondFailure(w, r, err, "create account")
		return
	}
	account, err := h.deps.Ledger.CreateAccount(r.Context(), userID, in)
	if err != nil {
		respondFailure(w, r, err, "create account")
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input(chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "update account")
		return
	}
	account, err := h.deps.Ledger.UpdateAccount(r.Context(), userID, in)
	if err != nil {
		respondFailure(w, r, err, "update account")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Ledger.DeleteAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondFailure(w, r, err, "delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelfCheck compares each stored balance with the sum of its ledger entries.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	rows, err := h.deps.Accounts.SelfCheck(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "self_check")
		return
	}
	balanced := true
	for _, row := range rows {
		if !row.Difference.IsZero() {
			balanced = false
			break
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"balanced": balanced,
		"accounts": rows,
	})
}

func (h *Handler) LoanReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	report, err := h.deps.Reports.Loan(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err, "load loan report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "id")
	account, err := h.deps.Accounts.GetByID(r.Context(), userID, accountID)
	if err != nil {
		respondFailure(w, r, accountLookup(err), "load ledger entries")
		return
	}
	limit, offset := pagination(r)
	entries, err := h.deps.Entries.ListByAccount(r.Context(), userID, accountID, limit, offset)
	if err != nil {
		respondFailure(w, r, err, "load ledger entries")
		return
	}
	sum, err := h.deps.Entries.SumByAccount(r.Context(), accountID)
	if err != nil {
		respondFailure(w, r, err, "load ledger entries")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"balance":    account.Balance,
		"ledger_sum": sum,
		"entries":    entries,
	})
}

func accountLookup(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrAccountNotFound
	}
	return err
}
