package commands_test

import (
	"context"
	"sync"
	"time"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) (uint64, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockOrderRepository) Get(ctx context.Context, id uint64) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) SetStatus(
	ctx context.Context, id uint64, next order.Status, actor string, at time.Time,
) (order.StatusChange, bool, error) {
	args := m.Called(ctx, id, next, actor, at)
	return args.Get(0).(order.StatusChange), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) ListForEscalation(
	ctx context.Context, firstAfter, repeatAfter time.Duration, now time.Time,
) ([]*order.Order, error) {
	args := m.Called(ctx, firstAfter, repeatAfter, now)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) MarkReminded(ctx context.Context, id uint64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockOrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, from, to)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) History(ctx context.Context, id uint64) ([]order.StatusChange, error) {
	args := m.Called(ctx, id)
	changes, _ := args.Get(0).([]order.StatusChange)
	return changes, args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockOrderUoW) TrackedIDs() []uint64 {
	ids, _ := m.Called().Get(0).([]uint64)
	return ids
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	return m.Called().Get(0).(commands.OrderUoW)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Reply(
	ctx context.Context, userID string, locale kernel.Locale, prompts []services.Prompt,
) []notifications.Rendered {
	args := m.Called(ctx, userID, locale, prompts)
	r, _ := args.Get(0).([]notifications.Rendered)
	return r
}

func (m *MockNotifier) SendText(ctx context.Context, recipient string, locale kernel.Locale, text string) error {
	return m.Called(ctx, recipient, locale, text).Error(0)
}

func (m *MockNotifier) SendFile(ctx context.Context, recipient string, locale kernel.Locale, text, path string) error {
	return m.Called(ctx, recipient, locale, text, path).Error(0)
}

func (m *MockNotifier) NotifyOrderCreated(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockNotifier) NotifyStatusChanged(ctx context.Context, o *order.Order, from, to order.Status) error {
	return m.Called(ctx, o, from, to).Error(0)
}

func (m *MockNotifier) NotifyEscalation(ctx context.Context, orders []*order.Order, now time.Time) (bool, error) {
	args := m.Called(ctx, orders, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotifier) NotifyStaff(ctx context.Context, msg ports.OutboundMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockNotifier) IsStaff(userID string) bool {
	return m.Called(userID).Bool(0)
}

func (m *MockNotifier) StaffLocale() kernel.Locale {
	return m.Called().Get(0).(kernel.Locale)
}

type MockSessionRepository struct{ mock.Mock }

func (m *MockSessionRepository) Get(ctx context.Context, userID string) (*session.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*session.Session)
	return s, args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, s *session.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type MockStats struct{ mock.Mock }

func (m *MockStats) Handle(ctx context.Context, q queries.GetOrderStatsQuery) (queries.GetOrderStatsQueryResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(queries.GetOrderStatsQueryResponse), args.Error(1)
}

type MockReportGenerator struct{ mock.Mock }

func (m *MockReportGenerator) Generate(ctx context.Context, name string, orders []*order.Order) (string, error) {
	args := m.Called(ctx, name, orders)
	return args.String(0), args.Error(1)
}

func (m *MockReportGenerator) Prune(ctx context.Context, before time.Time) (int, error) {
	args := m.Called(ctx, before)
	return args.Int(0), args.Error(1)
}

type MockSender struct{ mock.Mock }

func (m *MockSender) Send(ctx context.Context, msg ports.OutboundMessage) error {
	return m.Called(ctx, msg).Error(0)
}

// memoryQueue is an in-process ports.ContentQueue.
type memoryQueue struct {
	mu    sync.Mutex
	posts []ports.ContentPost
}

func (q *memoryQueue) Enqueue(_ context.Context, body string) (ports.ContentPost, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	post := ports.ContentPost{ID: body, Body: body}
	q.posts = append(q.posts, post)
	return post, nil
}

func (q *memoryQueue) Consume(ctx context.Context, publish func(context.Context, ports.ContentPost) error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.posts) == 0 {
		return false, nil
	}
	if err := publish(ctx, q.posts[0]); err != nil {
		return false, err
	}
	q.posts = q.posts[1:]
	return true, nil
}

// recordingSender remembers every outbound message.
type recordingSender struct {
	mu   sync.Mutex
	sent []ports.OutboundMessage
}

func (s *recordingSender) Send(_ context.Context, msg ports.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) to(recipient string) []ports.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.OutboundMessage
	for _, m := range s.sent {
		if m.Recipient == recipient {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}
