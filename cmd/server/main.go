package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auditline/internal/config"
	"auditline/internal/db"
	"auditline/internal/events"
	"auditline/internal/handlers"
	"auditline/internal/log"
	"auditline/internal/services"
	"auditline/internal/store"
	"auditline/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	migrateOnStart := flag.Bool("migrate", false, "apply pending migrations before serving")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.AppEnv == "production"})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	if *migrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL, db.Up, 0); err != nil {
			logger.Error("migration failed", log.FieldOperation, log.OpMigrate, log.FieldError, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", log.FieldError, err)
		os.Exit(1)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	sessions := store.NewSessionStore(database)
	settings := store.NewSettingsStore(database)
	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	entries := store.NewLedgerStore(database)
	goals := store.NewGoalStore(database)
	receivables := store.NewReceivableStore(database)
	documents := store.NewDocumentStore(database)
	notifications := store.NewNotificationStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	notifier := services.NewNotificationService(notifications, settings, hub, logger)
	publisher, closePublisher := eventBus(ctx, cfg, notifier, logger)
	defer closePublisher()

	ledgerService := services.NewLedgerService(txRunner, services.LedgerStores{
		Accounts:     accounts,
		Transactions: transactions,
		Entries:      entries,
		Goals:        goals,
		Receivables:  receivables,
		Audit:        audit,
	}, hub, publisher, logger)
	sessionService := services.NewSessionService(txRunner, users, sessions, settings, audit, services.SessionConfig{
		Secret:          cfg.JWTSecret,
		TTL:             cfg.TokenTTL,
		DefaultCurrency: cfg.DefaultCurrency,
	}, logger)
	defer sessionService.PushTo(hub)()
	reportService := services.NewReportService(services.ReportStores{
		Accounts:      accounts,
		Transactions:  transactions,
		Goals:         goals,
		Receivables:   receivables,
		Documents:     documents,
		Notifications: notifications,
		Users:         users,
		Settings:      settings,
	}, logger)

	handler := handlers.New(cfg, handlers.Deps{
		Ledger:        ledgerService,
		Sessions:      sessionService,
		Reports:       reportService,
		Notifications: notifier,
		Accounts:      accounts,
		Transactions:  transactions,
		Goals:         goals,
		Receivables:   receivables,
		Entries:       entries,
		Documents:     documents,
		Settings:      settings,
		Users:         users,
		Audit:         audit,
	}, hub, logger)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("auditline API listening", log.FieldOperation, log.OpStartup, "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", log.FieldError, err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", log.FieldOperation, log.OpShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", log.FieldError, err)
	}
}

// eventBus publishes through the broker when one is configured and consumes
// the same queue into the notifier. Without a broker, or when it cannot be
// reached at startup, events are delivered in process.
func eventBus(ctx context.Context, cfg config.Config, notifier *services.NotificationService, logger *log.Logger) (events.Publisher, func()) {
	amqpLogger := logger.WithComponent(log.ComponentAMQP)
	if cfg.AMQPURL != "" {
		client, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err == nil {
			go func() {
				if err := client.Consume(ctx, notifier.Handle); err != nil && ctx.Err() == nil {
					amqpLogger.Error("event consumer stopped", log.FieldOperation, log.OpConsume, log.FieldError, err)
				}
			}()
			amqpLogger.Info("publishing ledger events to broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			return client, func() { _ = client.Close() }
		}
		amqpLogger.Warn("broker unavailable, delivering events in process", log.FieldError, err)
	}
	local := events.NewLocal()
	local.Subscribe(notifier.Handle)
	return local, func() {}
}
