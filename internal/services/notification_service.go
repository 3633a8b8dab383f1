package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auditline/internal/events"
	"auditline/internal/log"
	"auditline/internal/models"
	"auditline/internal/money"
	"auditline/internal/websocket"

	"github.com/google/uuid"
)

type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Clear(ctx context.Context, userID string) error
}

type SettingsReader interface {
	Get(ctx context.Context, userID string) (models.Settings, error)
}

// NotificationService turns committed ledger events into the user's
// notification feed.
type NotificationService struct {
	notifications NotificationStore
	settings      SettingsReader
	hub           NotificationHub
	logger        *log.Logger
	now           func() time.Time
}

func NewNotificationService(notifications NotificationStore, settings SettingsReader, hub NotificationHub, logger *log.Logger) *NotificationService {
	if logger == nil {
		logger = log.Discard()
	}
	return &NotificationService{
		notifications: notifications,
		settings:      settings,
		hub:           hub,
		logger:        logger.WithComponent(log.ComponentNotifier),
		now:           time.Now,
	}
}

// Handle is an events.Handler. Events with no user-facing message and users
// who turned notifications off are ignored.
func (s *NotificationService) Handle(ctx context.Context, e events.Event) error {
	title, message, kind, ok := describe(e)
	if !ok || e.UserID == "" {
		return nil
	}
	settings, err := s.settings.Get(ctx, e.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("load settings: %w", err)
	case !settings.Notifications:
		return nil
	}
	n := models.Notification{
		ID:      uuid.NewString(),
		UserID:  e.UserID,
		Title:   title,
		Message: message,
		Type:    kind,
		Date:    s.now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.hub != nil {
		s.hub.BroadcastNotification(e.UserID, websocket.NotificationUpdate{
			ID:      n.ID,
			Title:   n.Title,
			Message: n.Message,
			Type:    string(n.Type),
		})
	}
	s.logger.DebugContext(ctx, "notification stored", log.FieldUserID, e.UserID, log.FieldEvent, e.Type)
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Clear(ctx context.Context, userID string) error {
	return s.notifications.Clear(ctx, userID)
}

func describe(e events.Event) (string, string, models.NotificationType, bool) {
	amount := e.Amount
	if d, err := money.ParseAmount(e.Amount); err == nil {
		amount = money.FormatAmount(d)
	}
	switch e.Type {
	case events.AccountCreated:
		return "Account added", "A new account is ready to use.", models.NotifySuccess, true
	case events.AccountDeleted:
		return "Account removed", "An account was deleted.", models.NotifyInfo, true
	case events.TransactionRecorded:
		return "Transaction saved", withAmount(e.Description, amount), models.NotifySuccess, true
	case events.TransactionDeleted:
		return "Transaction deleted", "Balances were restored.", models.NotifyInfo, true
	case events.GoalContributed:
		return "Goal contribution", withAmount(e.Description, amount), models.NotifySuccess, true
	case events.ReceivableReceived:
		return "Payment received", withAmount(e.Description, amount), models.NotifySuccess, true
	case events.RecurringGenerated:
		return "Recurring transaction", withAmount(e.Description, amount), models.NotifyInfo, true
	case events.ReportDispatchQueued:
		return "Monthly report", "Your financial report was queued for " + e.Description + ".", models.NotifyInfo, true
	}
	return "", "", "", false
}

func withAmount(description, amount string) string {
	if amount == "" {
		return description
	}
	if description == "" {
		return amount
	}
	return description + " (" + amount + ")"
}
