package service

import (
	"context"
	"sync"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/google/uuid"
)

type memSubscriptions struct {
	mu        sync.Mutex
	rows      []domain.Subscription
	upsertErr error
	cancelErr error
	activated int
}

func (m *memSubscriptions) GetByUserID(_ context.Context, userID string) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserID == userID {
			r := row
			return &r, nil
		}
	}
	return nil, domain.NewNotFoundError("subscription", userID)
}

func (m *memSubscriptions) forUser(userID string) []domain.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Subscription
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

func (m *memSubscriptions) ActivateExclusive(_ context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.UserID != sub.UserID {
			kept = append(kept, row)
		}
	}
	sub.ID = uuid.New()
	m.rows = append(kept, *sub)
	m.activated++
	if !sub.IsActivated() {
		return nil, &domain.ActivationError{UserID: sub.UserID, Status: sub.Status, TrialEndsAt: sub.TrialEndsAt != nil}
	}
	stored := *sub
	return &stored, nil
}

func (m *memSubscriptions) UpsertByUserID(_ context.Context, sub *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for i, row := range m.rows {
		if row.UserID == sub.UserID {
			sub.ID = row.ID
			m.rows[i] = *sub
			return nil
		}
	}
	sub.ID = uuid.New()
	m.rows = append(m.rows, *sub)
	return nil
}

func (m *memSubscriptions) UpdateStatus(_ context.Context, userID string, status domain.SubscriptionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelErr != nil {
		return false, m.cancelErr
	}
	updated := false
	for i := range m.rows {
		if m.rows[i].UserID == userID {
			m.rows[i].Status = status
			updated = true
		}
	}
	return updated, nil
}

func (m *memSubscriptions) CreateTrialIfAbsent(_ context.Context, sub *domain.Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserID == sub.UserID {
			return false, nil
		}
	}
	sub.ID = uuid.New()
	m.rows = append(m.rows, *sub)
	return true, nil
}

type memCustomers map[string]string

func (m memCustomers) GetUserIDByCustomerID(_ context.Context, customerID string) (string, error) {
	userID, ok := m[customerID]
	if !ok {
		return "", domain.ErrCustomerMappingNotFound
	}
	return userID, nil
}

type memPlans struct {
	plans   []domain.Plan
	listErr error
}

func (m *memPlans) ListActive(context.Context) ([]domain.Plan, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Plan
	for _, p := range m.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPlans) GetByID(_ context.Context, id uuid.UUID) (*domain.Plan, error) {
	for _, p := range m.plans {
		if p.ID == id {
			plan := p
			return &plan, nil
		}
	}
	return nil, domain.NewNotFoundError("plan", id.String())
}

func (m *memPlans) GetByStripePriceID(_ context.Context, priceID string) (*domain.Plan, error) {
	for _, p := range m.plans {
		if p.StripePriceIDMonthly != nil && *p.StripePriceIDMonthly == priceID {
			plan := p
			return &plan, nil
		}
	}
	return nil, domain.NewNotFoundError("plan", priceID)
}

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAudit) Append(_ context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

type memDetails struct {
	subs *memSubscriptions
	err  error
}

func (m *memDetails) GetSubscriptionDetails(ctx context.Context, userID string) (*domain.SubscriptionDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	sub, err := m.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.SubscriptionDetails{UserID: userID, Status: sub.Status, TrialEndsAt: sub.TrialEndsAt, CurrentPeriodEnd: sub.CurrentPeriodEnd}, nil
}

func (m *memDetails) CountActiveAthletes(context.Context, string) (int, error) {
	return 0, nil
}

type memSettings struct {
	settings domain.AppSettings
}

func (m *memSettings) Get(context.Context) (domain.AppSettings, error) {
	return m.settings, nil
}

func (m *memSettings) Update(_ context.Context, s domain.AppSettings) (domain.AppSettings, error) {
	m.settings = s
	return s, nil
}

type staticAthletes int

func (s staticAthletes) CountActiveAthletes(context.Context, string) (int, error) {
	return int(s), nil
}

type recordingProducer struct {
	mu     sync.Mutex
	events []domain.SubscriptionEvent
}

func (p *recordingProducer) PublishSubscriptionEvent(_ context.Context, e *domain.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) kinds() []domain.SubscriptionEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.SubscriptionEventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
