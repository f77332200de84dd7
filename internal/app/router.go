package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"github.com/wealthapp/backend/internal/handler"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

// Router mounts every API route under /api. db backs the health check.
func Router(cfg RouterConfig, s *Services, db *sqlx.DB) http.Handler {
	transactionHandler := handler.NewTransactionHandler(s.Ledger)
	budgetHandler := handler.NewBudgetHandler(s.Budgets)
	goalHandler := handler.NewGoalHandler(s.Goals)
	recurringHandler := handler.NewRecurringHandler(s.Recurring, s.Executor)
	reportHandler := handler.NewReportHandler(s.Reports)
	alertHandler := handler.NewAlertHandler(s.Alerts)
	userHandler := handler.NewUserHandler(s.Users)
	pushHandler := handler.NewPushHandler(s.Push)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(handler.RequestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// VAPID key is fetched before the browser subscribes
	r.Get("/api/notifications/vapid-public-key", pushHandler.GetVAPIDPublicKey)

	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/users/me", userHandler.Me)
		r.Put("/api/users/me/alerts", userHandler.UpdateAlertSettings)

		// Accounts
		r.Get("/api/accounts", transactionHandler.ListAccounts)
		r.Post("/api/accounts", transactionHandler.CreateAccount)
		r.Get("/api/accounts/{id}", transactionHandler.GetAccount)

		// Transactions
		r.Get("/api/transactions", transactionHandler.List)
		r.Post("/api/transactions", transactionHandler.Create)
		r.Get("/api/transactions/{id}", transactionHandler.Get)
		r.Put("/api/transactions/{id}", transactionHandler.Update)
		r.Delete("/api/transactions/{id}", transactionHandler.Delete)

		// Budgets
		r.Get("/api/budgets", budgetHandler.List)
		r.Post("/api/budgets", budgetHandler.Set)
		r.Get("/api/budgets/current", budgetHandler.Current)
		r.Get("/api/budgets/{id}", budgetHandler.Get)
		r.Put("/api/budgets/{id}", budgetHandler.Update)
		r.Delete("/api/budgets/{id}", budgetHandler.Delete)

		// Goals
		r.Get("/api/goals", goalHandler.List)
		r.Post("/api/goals", goalHandler.Create)
		r.Get("/api/goals/{id}", goalHandler.Get)
		r.Delete("/api/goals/{id}", goalHandler.Delete)
		r.Post("/api/goals/{id}/contribute", goalHandler.Contribute)

		// Recurring Transactions
		r.Get("/api/recurring", recurringHandler.List)
		r.Post("/api/recurring", recurringHandler.Create)
		r.Get("/api/recurring/upcoming", recurringHandler.Upcoming)
		r.Get("/api/recurring/pending", recurringHandler.Pending)
		r.Get("/api/recurring/{id}", recurringHandler.Get)
		r.Put("/api/recurring/{id}", recurringHandler.Update)
		r.Delete("/api/recurring/{id}", recurringHandler.Delete)
		r.Post("/api/recurring/{id}/pause", recurringHandler.Pause)
		r.Post("/api/recurring/{id}/resume", recurringHandler.Resume)
		r.Patch("/api/recurring/{id}/toggle", recurringHandler.Toggle)
		r.Post("/api/recurring/{id}/process", recurringHandler.Process)

		// Reports and alerts
		r.Get("/api/reports/monthly", reportHandler.GetMonthlyReport)
		r.Get("/api/alerts", alertHandler.List)

		// Push Notifications
		r.Post("/api/notifications/subscribe", pushHandler.Subscribe)
		r.Delete("/api/notifications/unsubscribe", pushHandler.Unsubscribe)
	})

	return r
}
