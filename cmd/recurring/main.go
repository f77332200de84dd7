// Command recurring runs one scheduler pass and exits, for deployments that
// trigger passes from an external timer instead of the in-process cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wealthapp/backend/internal/app"
	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/database"
	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/scheduler"
)

func main() {
	pass := flag.String("pass", scheduler.JobDue, "Pass to run: due, reminders, report or all")
	timeout := flag.Duration("timeout", 0, "Per-pass timeout (default SCHEDULER_TIMEOUT)")
	flag.Parse()

	passes, err := parsePasses(*pass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *timeout > 0 {
		cfg.Scheduler.Timeout = *timeout
	}
	log := logger.Setup(cfg.Env)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	services := app.Build(cfg, db, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	failed := 0
	for _, name := range passes {
		if err := services.Scheduler.Run(ctx, name); err != nil {
			failed++
		}
	}

	log.Info("runner finished",
		slog.String("passes", strings.Join(passes, ",")),
		slog.Int("failed", failed),
		slog.Duration("elapsed", time.Since(start)),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

func parsePasses(v string) ([]string, error) {
	switch v {
	case scheduler.JobDue, scheduler.JobReminders, scheduler.JobReport:
		return []string{v}, nil
	case "all":
		return []string{scheduler.JobDue, scheduler.JobReminders, scheduler.JobReport}, nil
	}
	return nil, fmt.Errorf("unknown pass %q", v)
}
