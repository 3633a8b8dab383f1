package store

import (
	"context"
	"time"

	"auditline/internal/models"
)

const settingsColumns = `user_id, currency, theme, notifications, onboarding_completed, report_email,
	auto_email_enabled, last_report_dispatch`

type SettingsStore struct {
	db DB
}

func NewSettingsStore(db DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Create(ctx context.Context, tx Execer, settings models.Settings) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO settings (user_id, currency, theme, notifications, onboarding_completed, report_email, auto_email_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, settings.UserID, settings.Currency, settings.Theme, settings.Notifications,
		settings.OnboardingCompleted, settings.ReportEmail, settings.AutoEmailEnabled)
	return err
}

func (s *SettingsStore) Get(ctx context.Context, userID string) (models.Settings, error) {
	var row models.Settings
	err := s.db.GetContext(ctx, &row, `SELECT `+settingsColumns+` FROM settings WHERE user_id = $1`, userID)
	if err != nil {
		return models.Settings{}, err
	}
	return row, nil
}

func (s *SettingsStore) Update(ctx context.Context, settings models.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, currency, theme, notifications, onboarding_completed, report_email, auto_email_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET currency = EXCLUDED.currency,
		    theme = EXCLUDED.theme,
		    notifications = EXCLUDED.notifications,
		    onboarding_completed = EXCLUDED.onboarding_completed,
		    report_email = EXCLUDED.report_email,
		    auto_email_enabled = EXCLUDED.auto_email_enabled
	`, settings.UserID, settings.Currency, settings.Theme, settings.Notifications,
		settings.OnboardingCompleted, settings.ReportEmail, settings.AutoEmailEnabled)
	return err
}

// ListReportRecipients returns settings with automatic report mail enabled.
func (s *SettingsStore) ListReportRecipients(ctx context.Context) ([]models.Settings, error) {
	rows := []models.Settings{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+settingsColumns+`
		FROM settings
		WHERE auto_email_enabled AND report_email IS NOT NULL AND report_email <> ''
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SettingsStore) MarkReportDispatched(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE settings SET last_report_dispatch = $1 WHERE user_id = $2`, at, userID)
	return err
}
