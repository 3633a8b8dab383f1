package services

import (
	"context"
	"fmt"
	"time"

	"auditline/internal/events"
	"auditline/internal/log"
	"auditline/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DuenessChecker decides whether a recurring template needs a new
// occurrence. start anchors the day of month (and month of year) the
// template repeats on.
type DuenessChecker interface {
	IsDue(last, now, start time.Time) bool
}

type DailyChecker struct{}

func (DailyChecker) IsDue(last, now, _ time.Time) bool {
	if last.IsZero() {
		return true
	}
	return last.Format("2006-01-02") != now.Format("2006-01-02")
}

type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(last, now, _ time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= 7*24*time.Hour
}

type MonthlyChecker struct{}

// IsDue fires once per calendar month, on or after the anchor day. Anchors
// past the end of a short month fall on its last day.
func (MonthlyChecker) IsDue(last, now, start time.Time) bool {
	if last.IsZero() {
		return true
	}
	if last.Year() == now.Year() && last.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(now.Year(), now.Month(), start.Day())
}

type YearlyChecker struct{}

func (YearlyChecker) IsDue(last, now, start time.Time) bool {
	if last.IsZero() {
		return true
	}
	if last.Year() == now.Year() {
		return false
	}
	switch {
	case now.Month() < start.Month():
		return false
	case now.Month() == start.Month():
		return now.Day() >= clampDay(now.Year(), now.Month(), start.Day())
	}
	return true
}

func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

var duenessCheckers = map[models.RecurrencePeriod]DuenessChecker{
	models.RecurDaily:   DailyChecker{},
	models.RecurWeekly:  WeeklyChecker{},
	models.RecurMonthly: MonthlyChecker{},
	models.RecurYearly:  YearlyChecker{},
}

func CheckerFor(period models.RecurrencePeriod) (DuenessChecker, error) {
	checker, ok := duenessCheckers[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrence, period)
	}
	return checker, nil
}

// IsTemplateDue reports whether template needs an occurrence at now. A
// template that never produced one counts its own date as the last run,
// since recording it already moved the balances once.
func IsTemplateDue(template models.Transaction, now time.Time) (bool, error) {
	if template.RecurrencePeriod == nil {
		return false, ErrInvalidRecurrence
	}
	checker, err := CheckerFor(*template.RecurrencePeriod)
	if err != nil {
		return false, err
	}
	last := template.Date
	if template.LastRecurrenceAt != nil {
		last = *template.LastRecurrenceAt
	}
	if !now.After(last) {
		return false, nil
	}
	return checker.IsDue(last.UTC(), now.UTC(), template.Date.UTC()), nil
}

// RecordOccurrence books one generated copy of a recurring template dated at
// and stamps the template in the same transaction.
func (s *LedgerService) RecordOccurrence(ctx context.Context, template models.Transaction, at time.Time, stamper RecurringStore) (models.Transaction, error) {
	sourceID := template.ID
	occurrence := template
	occurrence.ID = uuid.NewString()
	occurrence.Date = at
	occurrence.IsRecurring = false
	occurrence.RecurrencePeriod = nil
	occurrence.RecurrenceSourceID = &sourceID
	occurrence.LastRecurrenceAt = nil
	occurrence.GoalID = nil
	return s.record(ctx, template.UserID, occurrence, events.RecurringGenerated, func(tx *sqlx.Tx, _ models.Transaction) error {
		return stamper.StampRecurrence(ctx, tx, sourceID, at)
	})
}

type occurrenceRecorder interface {
	RecordOccurrence(ctx context.Context, template models.Transaction, at time.Time, stamper RecurringStore) (models.Transaction, error)
}

// RecurringProcessor turns due recurring templates into real transactions.
type RecurringProcessor struct {
	templates RecurringStore
	ledger    occurrenceRecorder
	logger    *log.Logger
}

func NewRecurringProcessor(templates RecurringStore, ledger occurrenceRecorder, logger *log.Logger) *RecurringProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecurringProcessor{
		templates: templates,
		ledger:    ledger,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// ProcessDue records at most one occurrence per due template and returns
// how many were created. A failing template is logged and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	templates, err := p.templates.ListRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}
	created := 0
	for _, template := range templates {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		due, err := IsTemplateDue(template, now)
		if err != nil {
			p.logger.WarnContext(ctx, "skipping recurring template",
				log.FieldTransactionID, template.ID,
				log.FieldError, err)
			continue
		}
		if !due {
			continue
		}
		occurrence, err := p.ledger.RecordOccurrence(ctx, template, now.UTC(), p.templates)
		if err != nil {
			p.logger.ErrorContext(ctx, "recurring occurrence failed",
				log.FieldTransactionID, template.ID,
				log.FieldUserID, template.UserID,
				log.FieldError, err)
			continue
		}
		created++
		p.logger.InfoContext(ctx, "recurring occurrence recorded",
			log.FieldTransactionID, occurrence.ID,
			"template_id", template.ID,
			log.FieldUserID, template.UserID,
			log.FieldAmount, occurrence.Amount.StringFixed(2))
	}
	p.logger.InfoContext(ctx, "recurring run complete", "checked", len(templates), "created", created)
	return created, nil
}

// Run processes once immediately and then on every tick until ctx ends.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	if _, err := p.ProcessDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "recurring run failed", log.FieldError, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := p.ProcessDue(ctx, now); err != nil && ctx.Err() == nil {
				p.logger.ErrorContext(ctx, "recurring run failed", log.FieldError, err)
			}
		}
	}
}
