// Package scheduler runs the recurring-transaction passes and the monthly
// report on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/service"
)

// Job names accepted by Run.
const (
	JobDue       = "due"
	JobReminders = "reminders"
	JobReport    = "report"
)

// Config holds the scheduler configuration
type Config struct {
	// Schedules are standard 5-field cron expressions evaluated in Location.
	DueSchedule      string
	ReminderSchedule string
	ReportSchedule   string
	// Timeout bounds a single job run.
	Timeout  time.Duration
	Location *time.Location
	Enabled  bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		DueSchedule:      "0 0 * * *",  // midnight
		ReminderSchedule: "0 9 * * *",  // 09:00
		ReportSchedule:   "0 10 1 * *", // 10:00 on the 1st
		Timeout:          10 * time.Minute,
		Location:         time.UTC,
		Enabled:          true,
	}
}

type DueProcessor interface {
	ProcessDueRules(ctx context.Context, now time.Time) (service.PassResult, error)
}

type ReminderSender interface {
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}

type ReportSender interface {
	MonthlyReports(ctx context.Context, now time.Time) (service.PassResult, error)
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context, now time.Time) ([]any, error)
	entryID  cron.EntryID
	// running guards manual runs; cron runs are guarded by SkipIfStillRunning.
	running sync.Mutex
}

// Scheduler owns the cron instance and the three jobs it drives.
type Scheduler struct {
	cron   *cron.Cron
	config Config
	logger *slog.Logger
	now    func() time.Time
	jobs   map[string]*job
	order  []string
}

// New creates a new Scheduler instance
func New(cfg Config, due DueProcessor, reminders ReminderSender, reports ReportSender, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		config: cfg,
		logger: logger,
		now:    time.Now,
		jobs:   make(map[string]*job),
	}

	s.register(JobDue, cfg.DueSchedule, func(ctx context.Context, now time.Time) ([]any, error) {
		r, err := due.ProcessDueRules(ctx, now)
		return []any{slog.Int("success", r.SuccessCount), slog.Int("failed", r.FailCount)}, err
	})
	s.register(JobReminders, cfg.ReminderSchedule, func(ctx context.Context, now time.Time) ([]any, error) {
		sent, err := reminders.SendDueReminders(ctx, now)
		return []any{slog.Int("sent", sent)}, err
	})
	s.register(JobReport, cfg.ReportSchedule, func(ctx context.Context, now time.Time) ([]any, error) {
		r, err := reports.MonthlyReports(ctx, now)
		return []any{slog.Int("success", r.SuccessCount), slog.Int("failed", r.FailCount)}, err
	})
	return s
}

func (s *Scheduler) register(name, schedule string, run func(context.Context, time.Time) ([]any, error)) {
	s.jobs[name] = &job{name: name, schedule: schedule, run: run}
	s.order = append(s.order, name)
}

// Start adds every job to cron and starts it.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("scheduler is disabled, skipping start")
		return nil
	}

	for _, name := range s.order {
		j := s.jobs[name]
		// Standard 5-field cron gets a leading seconds field.
		entryID, err := s.cron.AddFunc("0 "+j.schedule, func() {
			s.runJob(context.Background(), j)
		})
		if err != nil {
			return fmt.Errorf("scheduling %s job %q: %w", name, j.schedule, err)
		}
		j.entryID = entryID
	}
	s.cron.Start()

	s.logger.Info("scheduler started",
		slog.String("due", s.config.DueSchedule),
		slog.String("reminders", s.config.ReminderSchedule),
		slog.String("report", s.config.ReportSchedule),
		slog.String("timezone", s.config.Location.String()),
		slog.Duration("timeout", s.config.Timeout),
		slog.Time("next_due_run", s.NextRun(JobDue)),
	)
	return nil
}

// Stop halts the cron loop. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

// Run executes the named job synchronously.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.runJob(ctx, j)
}

func (s *Scheduler) runJob(parent context.Context, j *job) error {
	if !j.running.TryLock() {
		s.logger.Warn("job already running, skipping", slog.String("job", j.name))
		return nil
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(logger.WithJob(parent, j.name), s.config.Timeout)
	defer cancel()

	start := s.now()
	log := s.logger.With(slog.String("job", j.name))
	log.Info("job started", slog.Time("start_time", start))

	attrs, err := j.run(ctx, start.In(s.config.Location))
	duration := time.Since(start)
	if err != nil {
		log.Error("job failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return err
	}

	log.Info("job completed", append(attrs, slog.Duration("duration", duration))...)
	return nil
}

// NextRun returns the next scheduled run of the named job, or the zero time
// when the scheduler is not started.
func (s *Scheduler) NextRun(name string) time.Time {
	j, ok := s.jobs[name]
	if !ok || j.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(j.entryID).Next
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

// cronLogger adapts slog to cron's logger for the job wrappers.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
