// Package advice produces short saving tips and monthly insights through an
// OpenAI-compatible chat completion endpoint. Every call degrades to a fixed
// fallback text; callers never see an error.
package advice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/pkg/currency"
)

const (
	FallbackTips    = "Try to limit your spending in major categories to stay within budget."
	FallbackInsight = "Review your largest spending categories and set a budget for next month."
)

// Advisor is the text-generation collaborator used by alerts and reports.
type Advisor interface {
	SavingTips(ctx context.Context, breakdown []model.CategoryTotal, budget, spent decimal.Decimal, cur currency.Currency) string
	MonthlyInsight(ctx context.Context, summary *model.MonthlySummary, cur currency.Currency) string
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Client, or nil when no API key is configured. A nil *Client
// is valid and always answers with the fallback text.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

const tipsSystemPrompt = `You are a personal financial strategist for an Indian personal-finance app.
Give a short rescue plan in exactly four numbered points:
1. A quick fix for the top spending category.
2. A habit for long-term control.
3. A practical hack to cut costs in a high-spend area.
4. A specific challenge for the next 7 days.
Base every point on the categories provided. At most 2 sentences per point, 150 words total.`

func (c *Client) SavingTips(ctx context.Context, breakdown []model.CategoryTotal, budget, spent decimal.Decimal, cur currency.Currency) string {
	if c == nil {
		return FallbackTips
	}

	status := "APPROACHING LIMIT"
	if spent.GreaterThan(budget) {
		status = "OVER BUDGET"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Monthly budget: %s\n", currency.Format(budget, cur))
	fmt.Fprintf(&b, "Spent so far: %s\n", currency.Format(spent, cur))
	fmt.Fprintf(&b, "Status: %s\n", status)
	b.WriteString("Spending by category:\n")
	writeBreakdown(&b, breakdown, cur)

	return c.complete(ctx, tipsSystemPrompt, b.String(), FallbackTips)
}

const insightSystemPrompt = `Analyze the following monthly expense report. Identify overspending areas,
provide saving tips, and give one actionable suggestion. Keep it concise, friendly, and professional.`

func (c *Client) MonthlyInsight(ctx context.Context, summary *model.MonthlySummary, cur currency.Currency) string {
	if c == nil || summary == nil {
		return FallbackInsight
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Month: %04d-%02d\n", summary.Year, summary.Month)
	fmt.Fprintf(&b, "Income: %s\n", currency.Format(summary.Income, cur))
	fmt.Fprintf(&b, "Expense: %s\n", currency.Format(summary.Expense, cur))
	fmt.Fprintf(&b, "Savings: %s\n", currency.Format(summary.Savings, cur))
	b.WriteString("Spending by category:\n")
	writeBreakdown(&b, summary.Categories, cur)

	return c.complete(ctx, insightSystemPrompt, b.String(), FallbackInsight)
}

func (c *Client) complete(ctx context.Context, system, user, fallback string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		c.logger.Warn("advice generation failed, using fallback", slog.String("error", err.Error()))
		return fallback
	}
	if len(resp.Choices) == 0 {
		return fallback
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return fallback
	}
	return text
}

func writeBreakdown(b *strings.Builder, breakdown []model.CategoryTotal, cur currency.Currency) {
	if len(breakdown) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, ct := range breakdown {
		fmt.Fprintf(b, "- %s: %s\n", ct.Category, currency.Format(ct.Total, cur))
	}
}

// Static is an Advisor that always answers with the fallback texts.
type Static struct{}

func (Static) SavingTips(context.Context, []model.CategoryTotal, decimal.Decimal, decimal.Decimal, currency.Currency) string {
	return FallbackTips
}

func (Static) MonthlyInsight(context.Context, *model.MonthlySummary, currency.Currency) string {
	return FallbackInsight
}

var (
	_ Advisor = (*Client)(nil)
	_ Advisor = Static{}
)
