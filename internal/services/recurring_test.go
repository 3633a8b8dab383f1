package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"auditline/internal/events"
	"auditline/internal/models"
	"auditline/internal/store"

	"github.com/shopspring/decimal"
)

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"never executed", time.Time{}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"same month", time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), false},
		{"before anchor day", time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC), false},
		{"anchor clamped to short month", time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.last, tt.now, start); got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyWeeklyYearlyCheckers(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	start := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	lastYear := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		checker DuenessChecker
		last    time.Time
		now     time.Time
		want    bool
	}{
		{"daily same day", DailyChecker{}, time.Date(2026, 6, 15, 1, 0, 0, 0, time.UTC), now, false},
		{"daily yesterday", DailyChecker{}, time.Date(2026, 6, 14, 23, 0, 0, 0, time.UTC), now, true},
		{"weekly six days", WeeklyChecker{}, now.AddDate(0, 0, -6), now, false},
		{"weekly seven days", WeeklyChecker{}, now.AddDate(0, 0, -7), now, true},
		{"yearly same year", YearlyChecker{}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), now, false},
		{"yearly before anchor day", YearlyChecker{}, lastYear, now, false},
		{"yearly on anchor day", YearlyChecker{}, lastYear, time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC), true},
		{"yearly past anchor month", YearlyChecker{}, lastYear, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker.IsDue(tt.last, tt.now, start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckerForUnknownPeriod(t *testing.T) {
	if _, err := CheckerFor("HOURLY"); !errors.Is(err, ErrInvalidRecurrence) {
		t.Fatalf("expected ErrInvalidRecurrence, got %v", err)
	}
}

func TestIsTemplateDueCountsTemplateDate(t *testing.T) {
	period := models.RecurMonthly
	template := models.Transaction{
		ID: "tpl", IsRecurring: true, RecurrencePeriod: &period,
		Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	due, err := IsTemplateDue(template, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
	if err != nil || due {
		t.Fatalf("template recorded this month must not repeat yet: due=%v err=%v", due, err)
	}
	due, _ = IsTemplateDue(template, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
	if !due {
		t.Fatal("expected template to be due on the next anchor day")
	}
	stamped := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	template.LastRecurrenceAt = &stamped
	due, _ = IsTemplateDue(template, time.Date(2026, 4, 25, 0, 0, 0, 0, time.UTC))
	if due {
		t.Fatal("stamped template must wait for the next month")
	}
}

type stubRecurringStore struct {
	templates []models.Transaction
	listErr   error
	stamped   map[string]time.Time
}

func (s *stubRecurringStore) ListRecurringTemplates(context.Context) ([]models.Transaction, error) {
	return s.templates, s.listErr
}

func (s *stubRecurringStore) StampRecurrence(_ context.Context, _ store.Execer, transactionID string, at time.Time) error {
	if s.stamped == nil {
		s.stamped = map[string]time.Time{}
	}
	s.stamped[transactionID] = at
	return nil
}

func TestRecordOccurrenceStampsTemplate(t *testing.T) {
	period := models.RecurWeekly
	goal := "g1"
	template := models.Transaction{
		ID: "tpl", UserID: testUser, Amount: dec("12.5"), Type: models.TxSubscription, Description: "Music",
		FromAccountID: stringPtr("a1"), IsRecurring: true, RecurrencePeriod: &period, GoalID: &goal,
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	balances := balanceLog{}
	var created models.Transaction
	publisher := &stubPublisher{}
	service := newTestLedgerService(LedgerStores{
		Accounts: stubAccountStore{getForUpdateFn: accountsByID(nil, account("a1", "100")), updateBalanceFn: balances.record},
		Transactions: stubTransactionStore{createFn: func(_ context.Context, _ store.Execer, tx models.Transaction) error {
			created = tx
			return nil
		}},
	}, nil, publisher)
	recurring := &stubRecurringStore{}
	at := time.Date(2026, 3, 8, 6, 0, 0, 0, time.UTC)

	occurrence, err := service.RecordOccurrence(context.Background(), template, at, recurring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if occurrence.ID == template.ID || occurrence.IsRecurring || occurrence.RecurrenceSourceID == nil || *occurrence.RecurrenceSourceID != "tpl" {
		t.Fatalf("unexpected occurrence %+v", occurrence)
	}
	if occurrence.GoalID != nil || !occurrence.Date.Equal(at) || created.ID != occurrence.ID {
		t.Fatalf("unexpected stored occurrence %+v", created)
	}
	if !recurring.stamped["tpl"].Equal(at) {
		t.Fatalf("expected template stamped at %v, got %v", at, recurring.stamped)
	}
	if !balances["a1"].Equal(dec("87.5")) {
		t.Fatalf("expected a1 at 87.5, got %v", balances["a1"])
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != events.RecurringGenerated {
		t.Fatalf("unexpected events %+v", publisher.events)
	}
}

type stubOccurrenceRecorder struct {
	recorded []string
	failFor  string
}

func (s *stubOccurrenceRecorder) RecordOccurrence(_ context.Context, template models.Transaction, at time.Time, _ RecurringStore) (models.Transaction, error) {
	if template.ID == s.failFor {
		return models.Transaction{}, errors.New("locked")
	}
	s.recorded = append(s.recorded, template.ID)
	return models.Transaction{ID: "occ-" + template.ID, Amount: template.Amount, Date: at}, nil
}

func TestProcessDueSkipsFailuresAndNotDue(t *testing.T) {
	daily, yearly := models.RecurDaily, models.RecurYearly
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	templates := &stubRecurringStore{templates: []models.Transaction{
		{ID: "due", RecurrencePeriod: &daily, Date: yesterday, Amount: decimal.NewFromInt(1)},
		{ID: "broken", RecurrencePeriod: &daily, Date: yesterday, Amount: decimal.NewFromInt(1)},
		{ID: "later", RecurrencePeriod: &yearly, Date: now.AddDate(0, -1, 0), Amount: decimal.NewFromInt(1)},
		{ID: "no-period", Date: yesterday},
	}}
	recorder := &stubOccurrenceRecorder{failFor: "broken"}
	processor := NewRecurringProcessor(templates, recorder, nil)

	created, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 1 || len(recorder.recorded) != 1 || recorder.recorded[0] != "due" {
		t.Fatalf("expected only the due template, got %d %v", created, recorder.recorded)
	}
}

func TestProcessDueListError(t *testing.T) {
	processor := NewRecurringProcessor(&stubRecurringStore{listErr: errors.New("db down")}, &stubOccurrenceRecorder{}, nil)
	if _, err := processor.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	processor := NewRecurringProcessor(&stubRecurringStore{}, &stubOccurrenceRecorder{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx, time.Hour) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
