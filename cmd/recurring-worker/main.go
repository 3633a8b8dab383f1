package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auditline/internal/config"
	"auditline/internal/db"
	"auditline/internal/events"
	"auditline/internal/log"
	"auditline/internal/services"
	"auditline/internal/store"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.AppEnv == "production", Component: log.ComponentWorker})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", log.FieldError, err)
		os.Exit(1)
	}
	defer database.Close()

	transactions := store.NewTransactionStore(database)
	settings := store.NewSettingsStore(database)
	sessions := store.NewSessionStore(database)

	// Without a broker there is no server to push to, so notifications are
	// only stored.
	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		client, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect broker", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	} else {
		local := events.NewLocal()
		local.Subscribe(services.NewNotificationService(store.NewNotificationStore(database), settings, nil, logger).Handle)
		publisher = local
	}

	ledgerService := services.NewLedgerService(db.NewTxRunner(database), services.LedgerStores{
		Accounts:     store.NewAccountStore(database),
		Transactions: transactions,
		Entries:      store.NewLedgerStore(database),
		Goals:        store.NewGoalStore(database),
		Receivables:  store.NewReceivableStore(database),
		Audit:        store.NewAuditStore(database),
	}, nil, publisher, logger)
	processor := services.NewRecurringProcessor(transactions, ledgerService, logger)
	dispatcher := services.NewReportDispatcher(settings, publisher, logger)

	logger.Info("recurring worker started", log.FieldOperation, log.OpStartup, "interval", cfg.RecurringInterval)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return processor.Run(gctx, cfg.RecurringInterval)
	})
	g.Go(func() error {
		return housekeeping(gctx, cfg.RecurringInterval, dispatcher, sessions, logger)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("recurring worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("recurring worker stopped", log.FieldOperation, log.OpShutdown)
}

// housekeeping queues monthly reports and purges sessions that expired more
// than a day ago.
func housekeeping(ctx context.Context, interval time.Duration, dispatcher *services.ReportDispatcher, sessions *store.SessionStore, logger *log.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	now := time.Now()
	for {
		if queued, err := dispatcher.DispatchDue(ctx, now); err != nil {
			logger.ErrorContext(ctx, "report dispatch failed", log.FieldError, err)
		} else if queued > 0 {
			logger.InfoContext(ctx, "monthly reports queued", "count", queued)
		}
		if purged, err := sessions.DeleteExpired(ctx, now.Add(-24*time.Hour)); err != nil {
			logger.ErrorContext(ctx, "session purge failed", log.FieldError, err)
		} else if purged > 0 {
			logger.InfoContext(ctx, "expired sessions purged", "count", purged)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-ticker.C:
		}
	}
}
