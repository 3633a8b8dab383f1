package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"auditline/internal/calculator"
	"auditline/internal/events"
	"auditline/internal/export"
	"auditline/internal/ledger"
	"auditline/internal/log"
	"auditline/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var ErrNotLoan = errors.New("account is not a payable loan")

const (
	dashboardUpcoming = 5
	dashboardRecent   = 5
)

type (
	accountLister interface {
		GetByUser(ctx context.Context, userID string) ([]models.Account, error)
	}
	transactionLister interface {
		ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	}
	goalLister interface {
		GetByUser(ctx context.Context, userID string) ([]models.Goal, error)
	}
	receivableLister interface {
		GetByUser(ctx context.Context, userID string) ([]models.Receivable, error)
	}
	documentLister interface {
		GetByUser(ctx context.Context, userID string) ([]models.Document, error)
	}
	notificationLister interface {
		ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	}
	userReader interface {
		GetByID(ctx context.Context, userID string) (models.User, error)
	}
)

type ReportStores struct {
	Accounts      accountLister
	Transactions  transactionLister
	Goals         goalLister
	Receivables   receivableLister
	Documents     documentLister
	Notifications notificationLister
	Users         userReader
	Settings      SettingsReader
}

// ReportService computes read-only views over a user's books. Each call
// loads a fresh copy of the state; nothing is cached between requests.
type ReportService struct {
	stores  ReportStores
	classes ledger.Classification
	logger  *log.Logger
	now     func() time.Time
}

func NewReportService(stores ReportStores, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportService{
		stores:  stores,
		classes: ledger.DefaultClassification(),
		logger:  logger.WithComponent(log.ComponentLedger),
		now:     time.Now,
	}
}

type books struct {
	accounts     []models.Account
	transactions []models.Transaction
	goals        []models.Goal
	receivables  []models.Receivable
}

type want struct {
	transactions, goals, receivables bool
}

func (s *ReportService) load(ctx context.Context, userID string, w want) (books, error) {
	var b books
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := s.stores.Accounts.GetByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		b.accounts = accounts
		return nil
	})
	if w.transactions {
		g.Go(func() error {
			transactions, err := s.stores.Transactions.ListByUser(ctx, userID)
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}
			b.transactions = transactions
			return nil
		})
	}
	if w.goals {
		g.Go(func() error {
			goals, err := s.stores.Goals.GetByUser(ctx, userID)
			if err != nil {
				return fmt.Errorf("load goals: %w", err)
			}
			b.goals = goals
			return nil
		})
	}
	if w.receivables {
		g.Go(func() error {
			receivables, err := s.stores.Receivables.GetByUser(ctx, userID)
			if err != nil {
				return fmt.Errorf("load receivables: %w", err)
			}
			b.receivables = receivables
			return nil
		})
	}
	return b, g.Wait()
}

func (s *ReportService) NetWorth(ctx context.Context, userID string) (decimal.Decimal, error) {
	b, err := s.load(ctx, userID, want{})
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.NetWorth(b.accounts), nil
}

func (s *ReportService) BalanceSheet(ctx context.Context, userID string) (ledger.BalanceSheet, error) {
	b, err := s.load(ctx, userID, want{})
	if err != nil {
		return ledger.BalanceSheet{}, err
	}
	return ledger.BuildBalanceSheet(b.accounts), nil
}

func (s *ReportService) ProfitAndLoss(ctx context.Context, userID string, period ledger.Period) (ledger.ProfitAndLoss, error) {
	transactions, err := s.stores.Transactions.ListByUser(ctx, userID)
	if err != nil {
		return ledger.ProfitAndLoss{}, fmt.Errorf("load transactions: %w", err)
	}
	return ledger.ComputeProfitAndLoss(transactions, period, s.now(), s.classes), nil
}

type Dashboard struct {
	NetWorth           decimal.Decimal      `json:"net_worth"`
	TotalAssets        decimal.Decimal      `json:"total_assets"`
	TotalLiabilities   decimal.Decimal      `json:"total_liabilities"`
	Month              ledger.ProfitAndLoss `json:"month"`
	Upcoming           []models.Transaction `json:"upcoming"`
	Recent             []models.Transaction `json:"recent"`
	PendingReceivables []models.Receivable  `json:"pending_receivables"`
	PendingTotal       decimal.Decimal      `json:"pending_total"`
	PinnedGoals        []models.Goal        `json:"pinned_goals"`
	AccountCount       int                  `json:"account_count"`
	SetupProgress      int                  `json:"setup_progress"`
}

func (s *ReportService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	var (
		b        books
		settings models.Settings
		user     models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = s.load(gctx, userID, want{transactions: true, goals: true, receivables: true})
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.settingsFor(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.stores.Users.GetByID(gctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	sheet := ledger.BuildBalanceSheet(b.accounts)
	pending := ledger.PendingReceivables(b.receivables)
	pendingTotal := decimal.Zero
	for _, r := range pending {
		pendingTotal = pendingTotal.Add(r.Amount)
	}
	pinned := []models.Goal{}
	for _, goal := range b.goals {
		if goal.IsPinned {
			pinned = append(pinned, goal)
		}
	}
	recent := append([]models.Transaction(nil), b.transactions...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}
	return Dashboard{
		NetWorth:           ledger.NetWorth(b.accounts),
		TotalAssets:        sheet.TotalAssets,
		TotalLiabilities:   sheet.TotalLiabilities,
		Month:              ledger.ComputeProfitAndLoss(b.transactions, ledger.PeriodThisMonth, s.now(), s.classes),
		Upcoming:           ledger.UpcomingRecurring(b.transactions, dashboardUpcoming),
		Recent:             recent,
		PendingReceivables: pending,
		PendingTotal:       pendingTotal,
		PinnedGoals:        pinned,
		AccountCount:       len(b.accounts),
		SetupProgress:      SetupProgress(len(b.accounts), settings, user),
	}, nil
}

// SetupProgress scores onboarding out of 100: an account, automatic report
// mail and a profile name.
func SetupProgress(accounts int, settings models.Settings, user models.User) int {
	progress := 0
	if accounts > 0 {
		progress += 33
	}
	if settings.AutoEmailEnabled {
		progress += 33
	}
	if user.FullName != "" {
		progress += 34
	}
	return progress
}

type LoanReport struct {
	Progress ledger.LoanProgress     `json:"progress"`
	EMI      *calculator.Result      `json:"emi,omitempty"`
	Schedule []calculator.Installment `json:"schedule,omitempty"`
}

// Loan reports repayment progress of a LOAN_PAYABLE account and, when its
// terms are complete, the instalment plan they imply.
func (s *ReportService) Loan(ctx context.Context, userID, accountID string) (LoanReport, error) {
	b, err := s.load(ctx, userID, want{})
	if err != nil {
		return LoanReport{}, err
	}
	var account *models.Account
	for i := range b.accounts {
		if b.accounts[i].ID == accountID {
			account = &b.accounts[i]
			break
		}
	}
	if account == nil {
		return LoanReport{}, ledger.ErrAccountNotFound
	}
	if account.Type != models.AccountLoanPayable {
		return LoanReport{}, ErrNotLoan
	}
	report := LoanReport{Progress: ledger.Loan(*account)}
	if !account.InterestRate.Valid || account.LoanPeriodMonths == nil {
		return report, nil
	}
	principal := report.Progress.Principal
	emi, err := calculator.EMI(principal, account.InterestRate.Decimal, *account.LoanPeriodMonths)
	if err != nil {
		return report, nil
	}
	schedule, err := calculator.Schedule(principal, account.InterestRate.Decimal, *account.LoanPeriodMonths)
	if err != nil {
		return report, nil
	}
	report.EMI = &emi
	report.Schedule = schedule
	return report, nil
}

// Snapshot gathers everything the user owns for a one-way backup. Document
// payloads are left out; the list carries metadata only.
func (s *ReportService) Snapshot(ctx context.Context, userID string) (export.Snapshot, error) {
	snap := export.Snapshot{Version: export.SnapshotVersion, ExportedAt: s.now().UTC()}
	var b books
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = s.load(gctx, userID, want{transactions: true, goals: true, receivables: true})
		return err
	})
	g.Go(func() error {
		user, err := s.stores.Users.GetByID(gctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		snap.User = user
		return nil
	})
	g.Go(func() error {
		settings, err := s.settingsFor(gctx, userID)
		snap.Settings = settings
		return err
	})
	g.Go(func() error {
		documents, err := s.stores.Documents.GetByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load documents: %w", err)
		}
		snap.Documents = documents
		return nil
	})
	g.Go(func() error {
		notifications, err := s.stores.Notifications.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load notifications: %w", err)
		}
		snap.Notifications = notifications
		return nil
	})
	if err := g.Wait(); err != nil {
		return export.Snapshot{}, err
	}
	snap.Accounts = b.accounts
	snap.Transactions = b.transactions
	snap.Goals = b.goals
	snap.Receivables = b.receivables
	snap.NetWorth = ledger.NetWorth(b.accounts)
	snap.BalanceSheet = ledger.BuildBalanceSheet(b.accounts)
	s.logger.InfoContext(ctx, "snapshot built",
		log.FieldUserID, userID,
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions))
	return snap, nil
}

func (s *ReportService) settingsFor(ctx context.Context, userID string) (models.Settings, error) {
	settings, err := s.stores.Settings.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(userID, ""), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

type ReportRecipientStore interface {
	ListReportRecipients(ctx context.Context) ([]models.Settings, error)
	MarkReportDispatched(ctx context.Context, userID string, at time.Time) error
}

// ReportDispatcher queues the monthly report for users with automatic
// report mail enabled. Delivery itself belongs to whoever consumes
// report.dispatch_queued events.
type ReportDispatcher struct {
	recipients ReportRecipientStore
	publisher  events.Publisher
	logger     *log.Logger
}

func NewReportDispatcher(recipients ReportRecipientStore, publisher events.Publisher, logger *log.Logger) *ReportDispatcher {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportDispatcher{recipients: recipients, publisher: publisher, logger: logger.WithComponent(log.ComponentWorker)}
}

// DispatchDue queues one report per recipient per calendar month.
func (d *ReportDispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	recipients, err := d.recipients.ListReportRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("list report recipients: %w", err)
	}
	queued := 0
	for _, settings := range recipients {
		if !MonthlyReportDue(settings.LastReportDispatch, now) {
			continue
		}
		e := events.New(events.ReportDispatchQueued, settings.UserID, "settings", settings.UserID)
		if settings.ReportEmail != nil {
			e.Description = *settings.ReportEmail
		}
		if err := d.publisher.Publish(ctx, e); err != nil {
			d.logger.WarnContext(ctx, "report dispatch publish failed", log.FieldUserID, settings.UserID, log.FieldError, err)
			continue
		}
		if err := d.recipients.MarkReportDispatched(ctx, settings.UserID, now.UTC()); err != nil {
			return queued, fmt.Errorf("mark report dispatched: %w", err)
		}
		queued++
	}
	return queued, nil
}

func MonthlyReportDue(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return MonthlyChecker{}.IsDue(last.UTC(), now.UTC(), time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
}
