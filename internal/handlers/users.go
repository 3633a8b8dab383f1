package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"auditline/internal/models"
	"auditline/internal/validator"
)

type profileRequest struct {
	FullName string `json:"full_name"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.deps.Users.GetByID(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.deps.Sessions.UpdateProfile(r.Context(), userID, req.FullName)
	if err != nil {
		respondFailure(w, r, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// settingsRequest is a partial update; absent fields keep their value.
type settingsRequest struct {
	Currency            *string `json:"currency"`
	Theme               *string `json:"theme"`
	Notifications       *bool   `json:"notifications"`
	OnboardingCompleted *bool   `json:"onboarding_completed"`
	ReportEmail         *string `json:"report_email"`
	AutoEmailEnabled    *bool   `json:"auto_email_enabled"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	settings, err := h.settingsFor(r, userID)
	if err != nil {
		respondFailure(w, r, err, "load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.settingsFor(r, userID)
	if err != nil {
		respondFailure(w, r, err, "load settings")
		return
	}
	if err := applySettings(&settings, req); err != nil {
		respondFailure(w, r, err, "update settings")
		return
	}
	if err := h.deps.Settings.Update(r.Context(), settings); err != nil {
		respondFailure(w, r, err, "update settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *Handler) settingsFor(r *http.Request, userID string) (models.Settings, error) {
	settings, err := h.deps.Settings.Get(r.Context(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(userID, h.cfg.DefaultCurrency), nil
	}
	return settings, err
}

func applySettings(settings *models.Settings, req settingsRequest) error {
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if err := validator.ValidateCurrency(currency); err != nil {
			return err
		}
		settings.Currency = currency
	}
	if req.Theme != nil {
		theme := models.Theme(*req.Theme)
		if !theme.IsValid() {
			return errInvalidSettings
		}
		settings.Theme = theme
	}
	if req.Notifications != nil {
		settings.Notifications = *req.Notifications
	}
	if req.OnboardingCompleted != nil {
		settings.OnboardingCompleted = *req.OnboardingCompleted
	}
	if req.ReportEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.ReportEmail))
		if email == "" {
			settings.ReportEmail = nil
		} else {
			if err := validator.ValidateEmail(email); err != nil {
				return err
			}
			settings.ReportEmail = &email
		}
	}
	if req.AutoEmailEnabled != nil {
		settings.AutoEmailEnabled = *req.AutoEmailEnabled
	}
	if settings.AutoEmailEnabled && settings.ReportEmail == nil {
		return errInvalidSettings
	}
	return nil
}
