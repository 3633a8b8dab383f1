package handlers

import (
	"net/http"
	"time"

	"auditline/internal/config"
	"auditline/internal/log"
	"auditline/internal/middleware"
	"auditline/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gorillaws "github.com/gorilla/websocket"
)

type Handler struct {
	cfg      config.Config
	deps     Deps
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	logger   *log.Logger
	now      func() time.Time
}

func New(cfg config.Config, deps Deps, hub *websocket.Hub, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		cfg:      cfg,
		deps:     deps,
		hub:      hub,
		upgrader: websocket.Upgrader(cfg.Origins()),
		logger:   logger,
		now:      now,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(log.RequestLogger(h.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticated := middleware.Auth(h.deps.Sessions)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/login", h.Login)
		r.With(authenticated).Post("/logout", h.Logout)
		r.With(authenticated).Get("/session", h.Session)
	})
	router.With(authenticated).Get("/ws", h.WS)

	router.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateMe)
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/self-check", h.SelfCheck)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/loan", h.LoanReport)
			r.Get("/{id}/entries", h.ListEntries)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Put("/{id}", h.UpdateGoal)
			r.Delete("/{id}", h.DeleteGoal)
			r.Post("/{id}/contributions", h.ContributeToGoal)
		})
		r.Route("/receivables", func(r chi.Router) {
			r.Get("/", h.ListReceivables)
			r.Post("/", h.CreateReceivable)
			r.Put("/{id}", h.UpdateReceivable)
			r.Delete("/{id}", h.DeleteReceivable)
			r.Post("/{id}/receive", h.ReceiveReceivable)
		})
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/", h.CreateDocument)
			r.Get("/{id}", h.GetDocument)
			r.Delete("/{id}", h.DeleteDocument)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/net-worth", h.NetWorth)
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/profit-loss", h.ProfitAndLoss)
			r.Get("/dashboard", h.Dashboard)
		})
		r.Post("/calculator/emi", h.CalculateEMI)
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/read", h.MarkNotificationsRead)
			r.Delete("/", h.ClearNotifications)
		})
		r.Get("/audit", h.ListAudit)
		r.Get("/export", h.ExportJSON)
		r.Get("/export/xlsx", h.ExportXLSX)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

// WS upgrades to the push channel. Browsers cannot set headers on the
// handshake, so Auth also accepts the token as access_token there.
func (h *Handler) WS(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, _ := middleware.SessionIDFromContext(r.Context())
	websocket.ServeWS(w, r, h.upgrader, h.hub, userID, sessionID)
}
