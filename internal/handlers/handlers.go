package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"auditline/internal/calculator"
	"auditline/internal/db"
	"auditline/internal/ledger"
	"auditline/internal/log"
	"auditline/internal/middleware"
	"auditline/internal/money"
	"auditline/internal/services"
	"auditline/internal/validator"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{money.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{money.ErrTooManyDecimals, http.StatusBadRequest, "invalid_amount"},
	{errInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{ledger.ErrInvalidType, http.StatusBadRequest, "invalid_type"},
	{ledger.ErrMissingAccount, http.StatusBadRequest, "missing_account"},
	{ledger.ErrUnexpectedAccount, http.StatusBadRequest, "unexpected_account"},
	{ledger.ErrSameAccount, http.StatusBadRequest, "same_account"},
	{ledger.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},
	{ledger.ErrInvalidDateRange, http.StatusBadRequest, "invalid_range"},
	{services.ErrInvalidAccount, http.StatusBadRequest, "invalid_account"},
	{services.ErrInvalidGoal, http.StatusBadRequest, "invalid_goal"},
	{services.ErrInvalidReceivable, http.StatusBadRequest, "invalid_receivable"},
	{services.ErrInvalidRecurrence, http.StatusBadRequest, "invalid_recurrence"},
	{services.ErrNotLoan, http.StatusBadRequest, "not_a_loan"},
	{calculator.ErrInvalidTerm, http.StatusBadRequest, "invalid_term"},
	{calculator.ErrInvalidInput, http.StatusBadRequest, "invalid_loan_terms"},
	{validator.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{validator.ErrInvalidPassword, http.StatusBadRequest, "invalid_password"},
	{validator.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{validator.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{validator.ErrInvalidCard, http.StatusBadRequest, "invalid_card"},
	{validator.ErrInvalidExpiry, http.StatusBadRequest, "invalid_card_expiry"},
	{errInvalidDate, http.StatusBadRequest, "invalid_date"},
	{errInvalidDocument, http.StatusBadRequest, "invalid_document"},
	{errInvalidSettings, http.StatusBadRequest, "invalid_settings"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{services.ErrSessionInactive, http.StatusUnauthorized, "session_inactive"},
	{ledger.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{ledger.ErrTransactionNotFound, http.StatusNotFound, "transaction_not_found"},
	{ledger.ErrGoalNotFound, http.StatusNotFound, "goal_not_found"},
	{services.ErrReceivableNotFound, http.StatusNotFound, "receivable_not_found"},
	{services.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{errDocumentNotFound, http.StatusNotFound, "document_not_found"},
	{sql.ErrNoRows, http.StatusNotFound, "not_found"},
	{services.ErrAccountInUse, http.StatusConflict, "account_in_use"},
	{services.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{services.ErrReceivableProcessed, http.StatusConflict, "receivable_processed"},
	{ledger.ErrDuplicateID, http.StatusConflict, "duplicate_id"},
}

// classify maps an error to its HTTP status and stable code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	if db.IsUniqueViolation(err) {
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondFailure writes the mapped error. Server errors are logged and their
// detail is kept from the client.
func respondFailure(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).Error("request failed", log.FieldOperation, operation, log.FieldError, err)
		message = "unable to " + operation
	}
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeBody(r, dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func decodeBody(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}
