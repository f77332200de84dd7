package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthapp/backend/internal/model"
	"github.com/wealthapp/backend/internal/notify"
	"github.com/wealthapp/backend/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// memAccounts keeps balances in memory and applies deltas the way the
// database does: one atomic increment per call.
type memAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	// adjustErr, when set, decides the outcome of each AdjustBalance call.
	adjustErr func(id uuid.UUID, delta decimal.Decimal) error
	adjusts   int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[uuid.UUID]*model.Account)}
}

func (m *memAccounts) add(userID uuid.UUID, opening string) *model.Account {
	a := &model.Account{
		UserID:         userID,
		Name:           "Savings",
		Type:           model.AccountTypeBank,
		Currency:       "INR",
		OpeningBalance: dec(opening),
	}
	_ = m.Create(context.Background(), a)
	return a
}

func (m *memAccounts) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.Balance = a.OpeningBalance
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) List(_ context.Context, userID uuid.UUID) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAccounts) AdjustBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adjustErr != nil {
		if err := m.adjustErr(id, delta); err != nil {
			return err
		}
	}
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	m.adjusts++
	return nil
}

func (m *memAccounts) balance(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance
}

type memTransactions struct {
	mu        sync.Mutex
	txs       map[uuid.UUID]*model.Transaction
	createErr func(tx *model.Transaction) error
	deleteErr error
}

func newMemTransactions() *memTransactions {
	return &memTransactions{txs: make(map[uuid.UUID]*model.Transaction)}
}

func (m *memTransactions) Create(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		if err := m.createErr(tx); err != nil {
			return err
		}
	}
	tx.ID = uuid.New()
	cp := *tx
	m.txs[tx.ID] = &cp
	return nil
}

func (m *memTransactions) GetByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *memTransactions) List(_ context.Context, userID uuid.UUID, f repository.TransactionFilters) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Transaction
	for _, tx := range m.txs {
		if tx.UserID != userID {
			continue
		}
		if f.AccountID != nil && tx.AccountID != *f.AccountID {
			continue
		}
		if f.Type != nil && string(tx.Type) != *f.Type {
			continue
		}
		if f.From != nil && tx.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !tx.Date.Before(*f.To) {
			continue
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memTransactions) Update(_ context.Context, tx *model.Transaction) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.txs[tx.ID]
	if !ok || cur.UserID != tx.UserID {
		return nil, repository.ErrTransactionNotFound
	}
	prior := *cur
	cp := *tx
	m.txs[tx.ID] = &cp
	return &prior, nil
}

func (m *memTransactions) Delete(_ context.Context, id, userID uuid.UUID) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	tx, ok := m.txs[id]
	if !ok || tx.UserID != userID {
		return nil, repository.ErrTransactionNotFound
	}
	delete(m.txs, id)
	return tx, nil
}

func (m *memTransactions) inRange(tx *model.Transaction, userID uuid.UUID, from, to time.Time) bool {
	return tx.UserID == userID && !tx.Date.Before(from) && tx.Date.Before(to)
}

func (m *memTransactions) SumExpenses(_ context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range m.txs {
		if tx.Type == model.TransactionTypeExpense && m.inRange(tx, userID, from, to) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (m *memTransactions) ExpensesByCategory(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[string]decimal.Decimal{}
	for _, tx := range m.txs {
		if tx.Type == model.TransactionTypeExpense && m.inRange(tx, userID, from, to) {
			totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
		}
	}
	out := make([]model.CategoryTotal, 0, len(totals))
	for c, t := range totals {
		out = append(out, model.CategoryTotal{Category: c, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

func (m *memTransactions) Totals(_ context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range m.txs {
		if !m.inRange(tx, userID, from, to) {
			continue
		}
		if tx.Type == model.TransactionTypeIncome {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense, nil
}

func (m *memTransactions) ActiveUserIDs(_ context.Context, from, to time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, tx := range m.txs {
		if !tx.Date.Before(from) && tx.Date.Before(to) && !seen[tx.UserID] {
			seen[tx.UserID] = true
			out = append(out, tx.UserID)
		}
	}
	return out, nil
}

func (m *memTransactions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// signedSum is the balance contribution of every live transaction on account.
func (m *memTransactions) signedSum(accountID uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range m.txs {
		if tx.AccountID == accountID {
			sum = sum.Add(tx.SignedAmount())
		}
	}
	return sum
}

type memRules struct {
	mu      sync.Mutex
	rules   map[uuid.UUID]*model.RecurringRule
	saveErr error
	failed  int
}

func newMemRules() *memRules {
	return &memRules{rules: make(map[uuid.UUID]*model.RecurringRule)}
}

func (m *memRules) put(r model.RecurringRule) *model.RecurringRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := r
	m.rules[r.ID] = &cp
	out := r
	return &out
}

func (m *memRules) get(id uuid.UUID) model.RecurringRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rules[id]
}

func (m *memRules) Create(_ context.Context, r *model.RecurringRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	cp := *r
	m.rules[r.ID] = &cp
	return nil
}

func (m *memRules) GetByID(_ context.Context, id uuid.UUID) (*model.RecurringRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, repository.ErrRecurringNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRules) filter(keep func(*model.RecurringRule) bool) []model.RecurringRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RecurringRule
	for _, r := range m.rules {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out
}

func (m *memRules) ListByUser(_ context.Context, userID uuid.UUID) ([]model.RecurringRule, error) {
	return m.filter(func(r *model.RecurringRule) bool { return r.UserID == userID }), nil
}

func (m *memRules) Update(_ context.Context, r *model.RecurringRule, guard repository.UpdateGuard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rules[r.ID]
	if !ok {
		return repository.ErrRecurringNotFound
	}
	if !cur.NextDueDate.Equal(guard.NextDueDate) || cur.IsActive != guard.IsActive {
		return repository.ErrStaleSchedule
	}
	next := *cur
	next.Amount, next.Description, next.Category = r.Amount, r.Description, r.Category
	next.Frequency, next.EndDate = r.Frequency, r.EndDate
	next.IsActive, next.AutoExecute = r.IsActive, r.AutoExecute
	next.NotifyBeforeDays = r.NotifyBeforeDays
	if guard.ResetNotification {
		next.NotificationSent = false
	}
	r.NotificationSent = next.NotificationSent
	m.rules[r.ID] = &next
	return nil
}

func (m *memRules) Delete(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok || r.UserID != userID {
		return repository.ErrRecurringNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *memRules) ListDue(_ context.Context, now time.Time) ([]model.RecurringRule, error) {
	return m.filter(func(r *model.RecurringRule) bool {
		return r.IsActive && r.AutoExecute && !r.NextDueDate.After(now) &&
			(r.EndDate == nil || !r.NextDueDate.After(*r.EndDate))
	}), nil
}

func (m *memRules) ListReminderCandidates(_ context.Context, dayStart time.Time) ([]model.RecurringRule, error) {
	return m.filter(func(r *model.RecurringRule) bool {
		lead := r.NotifyBeforeDays
		if lead < 1 {
			lead = 1
		}
		return r.IsActive && !r.NotificationSent && !r.NextDueDate.Before(dayStart) &&
			r.NextDueDate.Before(dayStart.AddDate(0, 0, lead+2))
	}), nil
}

func (m *memRules) ListUpcoming(_ context.Context, userID uuid.UUID, until time.Time, limit int) ([]model.RecurringRule, error) {
	out := m.filter(func(r *model.RecurringRule) bool {
		return r.UserID == userID && r.IsActive && !r.NextDueDate.After(until)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRules) ListPendingConfirmation(_ context.Context, userID uuid.UUID, now time.Time) ([]model.RecurringRule, error) {
	return m.filter(func(r *model.RecurringRule) bool {
		return r.UserID == userID && r.IsActive && !r.AutoExecute && !r.NextDueDate.After(now)
	}), nil
}

func (m *memRules) SaveExecution(_ context.Context, r *model.RecurringRule, expectedDue time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cur, ok := m.rules[r.ID]
	if !ok || !cur.NextDueDate.Equal(expectedDue) {
		return repository.ErrStaleSchedule
	}
	next := *cur
	next.NextDueDate = r.NextDueDate
	next.LastProcessedDate = r.LastProcessedDate
	next.TotalExecutions = r.TotalExecutions
	next.LastExecutionStatus = r.LastExecutionStatus
	next.NotificationSent = r.NotificationSent
	next.IsActive = r.IsActive
	m.rules[r.ID] = &next
	return nil
}

func (m *memRules) MarkFailed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return repository.ErrRecurringNotFound
	}
	r.LastExecutionStatus = model.ExecutionStatusFailed
	m.failed++
	return nil
}

func (m *memRules) MarkNotified(_ context.Context, id uuid.UUID, dueDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok || !r.NextDueDate.Equal(dueDate) || r.NotificationSent {
		return false, nil
	}
	r.NotificationSent = true
	return true, nil
}

type memBudgets struct {
	mu      sync.Mutex
	budgets map[uuid.UUID]*model.Budget
	claims  int
}

func newMemBudgets() *memBudgets {
	return &memBudgets{budgets: make(map[uuid.UUID]*model.Budget)}
}

func (m *memBudgets) get(id uuid.UUID) model.Budget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.budgets[id]
}

func (m *memBudgets) Upsert(_ context.Context, b *model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.budgets {
		if cur.UserID == b.UserID && cur.Month == b.Month && cur.Year == b.Year {
			if !cur.Amount.Equal(b.Amount) {
				cur.Alert80Sent, cur.Alert100Sent = false, false
			}
			cur.Amount, cur.Currency = b.Amount, b.Currency
			*b = *cur
			return nil
		}
	}
	b.ID = uuid.New()
	cp := *b
	m.budgets[b.ID] = &cp
	return nil
}

func (m *memBudgets) GetByID(_ context.Context, id uuid.UUID) (*model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return nil, repository.ErrBudgetNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBudgets) GetForPeriod(_ context.Context, userID uuid.UUID, month, year int) (*model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.budgets {
		if b.UserID == userID && b.Month == month && b.Year == year {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrBudgetNotFound
}

func (m *memBudgets) List(_ context.Context, userID uuid.UUID) ([]model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBudgets) UpdateAmount(_ context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, repository.ErrBudgetNotFound
	}
	if !b.Amount.Equal(amount) {
		b.Alert80Sent, b.Alert100Sent = false, false
	}
	b.Amount = amount
	cp := *b
	return &cp, nil
}

func (m *memBudgets) Delete(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return repository.ErrBudgetNotFound
	}
	delete(m.budgets, id)
	return nil
}

func (m *memBudgets) ClaimThreshold(_ context.Context, id uuid.UUID, t repository.Threshold) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return false, nil
	}
	switch t {
	case repository.Threshold80:
		if b.Alert80Sent || b.Alert100Sent {
			return false, nil
		}
		b.Alert80Sent = true
	case repository.Threshold100:
		if b.Alert100Sent {
			return false, nil
		}
		b.Alert80Sent, b.Alert100Sent = true, true
	}
	m.claims++
	return true, nil
}

func (m *memBudgets) ReleaseThreshold(_ context.Context, id uuid.UUID, t repository.Threshold, prior80 bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return nil
	}
	switch t {
	case repository.Threshold80:
		if !b.Alert100Sent {
			b.Alert80Sent = false
		}
	case repository.Threshold100:
		b.Alert100Sent, b.Alert80Sent = false, prior80
	}
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemUsers(users ...*model.User) *memUsers {
	m := &memUsers{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateAlertSettings(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func newUser() *model.User {
	phone := "+919876543210"
	return &model.User{
		ID:            uuid.New(),
		Email:         "asha@example.com",
		Name:          "Asha",
		Phone:         &phone,
		Currency:      "INR",
		AlertEmail:    true,
		AlertWhatsApp: true,
		AlertPush:     false,
	}
}

type memAlerts struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (m *memAlerts) Create(_ context.Context, a *model.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *memAlerts) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Alert
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		if m.alerts[i].UserID == userID {
			out = append(out, m.alerts[i])
		}
	}
	return out, nil
}

func (m *memAlerts) all() []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Alert(nil), m.alerts...)
}

type memGoals struct {
	mu    sync.Mutex
	goals map[uuid.UUID]*model.Goal
}

func newMemGoals() *memGoals {
	return &memGoals{goals: make(map[uuid.UUID]*model.Goal)}
}

func cloneGoal(g *model.Goal) *model.Goal {
	cp := *g
	cp.Milestones = append([]model.Milestone(nil), g.Milestones...)
	return &cp
}

func (m *memGoals) Create(_ context.Context, g *model.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = uuid.New()
	for i := range g.Milestones {
		g.Milestones[i].GoalID = g.ID
	}
	m.goals[g.ID] = cloneGoal(g)
	return nil
}

func (m *memGoals) GetByID(_ context.Context, id uuid.UUID) (*model.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	return cloneGoal(g), nil
}

func (m *memGoals) List(_ context.Context, userID uuid.UUID) ([]model.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, *cloneGoal(g))
		}
	}
	return out, nil
}

func (m *memGoals) AddContribution(_ context.Context, id, userID uuid.UUID, amount decimal.Decimal) (*model.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID || g.Status != model.GoalStatusInProgress {
		return nil, repository.ErrGoalNotActive
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	out := cloneGoal(g)
	out.Milestones = nil
	return out, nil
}

func (m *memGoals) ReachMilestone(_ context.Context, goalID uuid.UUID, percentage int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[goalID]
	if !ok {
		return false, nil
	}
	for i := range g.Milestones {
		ms := &g.Milestones[i]
		if ms.Percentage == percentage && !ms.Reached {
			ms.Reached = true
			ms.ReachedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *memGoals) MarkCompleted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.Status != model.GoalStatusInProgress {
		return false, nil
	}
	g.Status = model.GoalStatusCompleted
	g.CompletedAt = &at
	return true, nil
}

func (m *memGoals) Delete(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return repository.ErrGoalNotFound
	}
	delete(m.goals, id)
	return nil
}

// recordingNotifier captures every message. err, when set, fails every send.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, _ *model.User, msg notify.Message) ([]notify.Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	n.msgs = append(n.msgs, msg)
	return []notify.Channel{notify.ChannelEmail}, nil
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

func (n *recordingNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// recordingObserver counts expense notifications from the ledger paths.
type recordingObserver struct {
	mu  sync.Mutex
	txs []model.Transaction
}

func (o *recordingObserver) OnExpenseTransactionPersisted(_ context.Context, tx *model.Transaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.txs = append(o.txs, *tx)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.txs)
}
