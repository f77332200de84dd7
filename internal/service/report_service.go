package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wealthapp/backend/internal/advice"
	"github.com/wealthapp/backend/internal/apperror"
	"github.com/wealthapp/backend/internal/logger"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/pkg/currency"
	"github.com/wealthapp/backend/pkg/datetime"
)

// ReportRepositoryInterface defines the aggregates the monthly report is built from.
type ReportRepositoryInterface interface {
	Totals(ctx context.Context, userID uuid.UUID, from, to time.Time) (income, expense decimal.Decimal, err error)
	ExpensesByCategory(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.CategoryTotal, error)
	ActiveUserIDs(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
}

type ReportDeps struct {
	Transactions ReportRepositoryInterface
	Users        UserGetter
	Alerts       AlertWriter
	Advisor      advice.Advisor
	Notifier     notify.Notifier
	Location     *time.Location
	Concurrency  int
	Logger       *slog.Logger
}

// ReportService builds monthly summaries and mails them out once a month.
type ReportService struct {
	txs         ReportRepositoryInterface
	users       UserGetter
	alerts      AlertWriter
	advisor     advice.Advisor
	notifier    notify.Notifier
	loc         *time.Location
	concurrency int
	logger      *slog.Logger
}

func NewReportService(deps ReportDeps) *ReportService {
	if deps.Advisor == nil {
		deps.Advisor = advice.Static{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Concurrency < 1 {
		deps.Concurrency = 1
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ReportService{
		txs:         deps.Transactions,
		users:       deps.Users,
		alerts:      deps.Alerts,
		advisor:     deps.Advisor,
		notifier:    deps.Notifier,
		loc:         deps.Location,
		concurrency: deps.Concurrency,
		logger:      deps.Logger,
	}
}

// Summary computes income, expense, savings and the category breakdown for one month.
func (s *ReportService) Summary(ctx context.Context, userID uuid.UUID, year, month int) (*model.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperror.ValidationError("month", "month must be between 1 and 12")
	}
	from, to := datetime.MonthRangeIn(year, time.Month(month), s.loc)

	income, expense, err := s.txs.Totals(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("getting monthly totals: %w", err)
	}
	categories, err := s.txs.ExpensesByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("getting category breakdown: %w", err)
	}
	if categories == nil {
		categories = []model.CategoryTotal{}
	}

	return &model.MonthlySummary{
		Year:       year,
		Month:      month,
		Income:     income,
		Expense:    expense,
		Savings:    income.Sub(expense),
		Categories: categories,
	}, nil
}

// MonthlyReports sends last month's report to every user who recorded a
// transaction in it. Users are processed independently.
func (s *ReportService) MonthlyReports(ctx context.Context, now time.Time) (PassResult, error) {
	log := logger.Enrich(ctx, s.logger)

	year, month := datetime.PreviousMonth(now.In(s.loc))
	from, to := datetime.MonthRangeIn(year, month, s.loc)

	userIDs, err := s.txs.ActiveUserIDs(ctx, from, to)
	if err != nil {
		return PassResult{}, fmt.Errorf("selecting users for monthly report: %w", err)
	}

	var success, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range userIDs {
		id := id
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := s.sendReport(ctx, id, year, int(month)); err != nil {
				failed.Add(1)
				log.Warn("monthly report not sent",
					slog.String("user_id", id.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			success.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := PassResult{SuccessCount: int(success.Load()), FailCount: int(failed.Load())}
	log.Info("monthly report pass finished",
		slog.Int("users", len(userIDs)),
		slog.Int("success", result.SuccessCount),
		slog.Int("failed", result.FailCount),
	)
	return result, nil
}

func (s *ReportService) sendReport(ctx context.Context, userID uuid.UUID, year, month int) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	summary, err := s.Summary(ctx, userID, year, month)
	if err != nil {
		return err
	}

	cur := currency.Normalize(user.Currency)
	insight := s.advisor.MonthlyInsight(ctx, summary, cur)
	msg := monthlyReportMessage(summary, insight, cur)

	sentVia, err := s.notifier.Notify(ctx, user, msg)
	if err != nil {
		return err
	}

	alert := &model.Alert{
		UserID:  userID,
		Type:    model.AlertTypeMonthlyReport,
		Message: msg.Body,
		SentVia: notify.JoinChannels(sentVia),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("recording report alert: %w", err)
	}
	return nil
}

func monthTime(summary *model.MonthlySummary) time.Time {
	return time.Date(summary.Year, time.Month(summary.Month), 1, 0, 0, 0, 0, time.UTC)
}
