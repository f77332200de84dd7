// Package app assembles repositories, notification channels and services
// into the graph shared by the API server and the one-shot runner.
package app

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wealthapp/backend/internal/advice"
	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/repository"
	"github.com/wealthapp/backend/internal/scheduler"
	"github.com/wealthapp/backend/internal/service"
)

type Services struct {
	Ledger    *service.LedgerService
	Budgets   *service.BudgetService
	Monitor   *service.BudgetMonitor
	Goals     *service.GoalService
	Recurring *service.RecurringService
	Executor  *service.RecurringExecutor
	Driver    *service.RecurringDriver
	Reports   *service.ReportService
	Users     *service.UserService
	Alerts    *service.AlertService
	Push      *service.PushService

	Scheduler *scheduler.Scheduler
}

// Build wires every service against db. Channels without credentials are
// left out of the dispatcher, so a bare development config still runs.
func Build(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) *Services {
	loc := cfg.Scheduler.Location()
	clock := service.SystemClock{}

	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	pushRepo := repository.NewPushRepository(db)

	notifier := notify.NewDispatcher(notify.DispatcherConfig{
		Timeout:     cfg.Notify.Timeout,
		MaxAttempts: cfg.Notify.MaxAttempts,
	}, logger, senders(cfg, pushRepo, logger)...)

	var advisor advice.Advisor = advice.Static{}
	if client := advice.New(advice.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, logger); client != nil {
		advisor = client
	}

	monitor := service.NewBudgetMonitor(service.MonitorDeps{
		Budgets:  budgetRepo,
		Expenses: transactionRepo,
		Users:    userRepo,
		Alerts:   alertRepo,
		Advisor:  advisor,
		Notifier: notifier,
		Location: loc,
		Logger:   logger,
	})

	executor := service.NewRecurringExecutor(service.ExecutorDeps{
		Rules:    recurringRepo,
		Ledger:   transactionRepo,
		Accounts: accountRepo,
		Users:    userRepo,
		Monitor:  monitor,
		Notifier: notifier,
		Clock:    clock,
		Logger:   logger,
	})

	driver := service.NewRecurringDriver(recurringRepo, executor, userRepo, notifier, service.DriverConfig{
		Concurrency:           cfg.Scheduler.Concurrency,
		HonorNotifyBeforeDays: cfg.Scheduler.HonorNotifyBeforeDays,
	}, logger)

	reports := service.NewReportService(service.ReportDeps{
		Transactions: transactionRepo,
		Users:        userRepo,
		Alerts:       alertRepo,
		Advisor:      advisor,
		Notifier:     notifier,
		Location:     loc,
		Concurrency:  cfg.Scheduler.Concurrency,
		Logger:       logger,
	})

	s := &Services{
		Ledger:    service.NewLedgerService(accountRepo, transactionRepo, monitor, clock, logger),
		Budgets:   service.NewBudgetService(budgetRepo, transactionRepo, loc),
		Monitor:   monitor,
		Goals:     service.NewGoalService(goalRepo, userRepo, notifier, clock, logger),
		Recurring: service.NewRecurringService(recurringRepo, accountRepo, clock, logger),
		Executor:  executor,
		Driver:    driver,
		Reports:   reports,
		Users:     service.NewUserService(userRepo, cfg.Notify.DefaultCountryCode),
		Alerts:    service.NewAlertService(alertRepo),
		Push:      service.NewPushService(pushRepo, cfg.Notify.VAPID.PublicKey),
	}

	s.Scheduler = scheduler.New(SchedulerConfig(cfg), driver, driver, reports, logger)
	return s
}

// SchedulerConfig maps the environment settings onto the scheduler.
func SchedulerConfig(cfg *config.Config) scheduler.Config {
	def := scheduler.DefaultConfig()
	sc := scheduler.Config{
		DueSchedule:      orDefault(cfg.Scheduler.DueSchedule, def.DueSchedule),
		ReminderSchedule: orDefault(cfg.Scheduler.ReminderSchedule, def.ReminderSchedule),
		ReportSchedule:   orDefault(cfg.Scheduler.ReportSchedule, def.ReportSchedule),
		Timeout:          cfg.Scheduler.Timeout,
		Location:         cfg.Scheduler.Location(),
		Enabled:          cfg.Scheduler.Enabled,
	}
	if sc.Timeout <= 0 {
		sc.Timeout = def.Timeout
	}
	return sc
}

func senders(cfg *config.Config, pushRepo *repository.PushRepository, logger *slog.Logger) []notify.Sender {
	var out []notify.Sender
	if cfg.Notify.SMTP.Host != "" {
		out = append(out, notify.NewEmailSender(cfg.Notify.SMTP))
	} else {
		logger.Warn("SMTP not configured, email alerts disabled")
	}
	if cfg.Notify.Twilio.AccountSID != "" && cfg.Notify.Twilio.AuthToken != "" {
		out = append(out, notify.NewWhatsAppSender(cfg.Notify.Twilio, cfg.Notify.DefaultCountryCode))
	} else {
		logger.Warn("Twilio not configured, WhatsApp alerts disabled")
	}
	if cfg.Notify.VAPID.PublicKey != "" && cfg.Notify.VAPID.PrivateKey != "" {
		out = append(out, notify.NewPushSender(cfg.Notify.VAPID, pushRepo, logger))
	} else {
		logger.Warn("VAPID keys not configured, push alerts disabled")
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// shutdownGrace bounds how long Stop waits for running jobs.
const shutdownGrace = 30 * time.Second

// StopScheduler stops cron and waits for running jobs, at most shutdownGrace.
func (s *Services) StopScheduler(logger *slog.Logger) {
	if !s.Scheduler.IsRunning() {
		return
	}
	ctx := s.Scheduler.Stop()
	select {
	case <-ctx.Done():
		logger.Info("scheduler stopped")
	case <-time.After(shutdownGrace):
		logger.Warn("scheduler stop timed out, jobs still running")
	}
}
