package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/core/ports"
	"orderbot/internal/generated/servers"
	"orderbot/internal/pkg/auth"
	"orderbot/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type MockInbound struct{ mock.Mock }

func (m *MockInbound) Handle(ctx context.Context, c commands.HandleInboundEventCommand) (commands.HandleInboundEventResult, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(commands.HandleInboundEventResult), args.Error(1)
}

type MockChangeStatus struct{ mock.Mock }

func (m *MockChangeStatus) Handle(ctx context.Context, c commands.ChangeOrderStatusCommand) (commands.ChangeOrderStatusResult, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(commands.ChangeOrderStatusResult), args.Error(1)
}

type MockEnqueue struct{ mock.Mock }

func (m *MockEnqueue) Handle(ctx context.Context, c commands.EnqueueContentCommand) (ports.ContentPost, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(ports.ContentPost), args.Error(1)
}

type MockGetOrder struct{ mock.Mock }

func (m *MockGetOrder) Handle(ctx context.Context, q queries.GetOrderQuery) (queries.GetOrderQueryResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(queries.GetOrderQueryResponse), args.Error(1)
}

type MockListOrders struct{ mock.Mock }

func (m *MockListOrders) Handle(ctx context.Context, q queries.ListOrdersQuery) ([]queries.OrderView, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]queries.OrderView), args.Error(1)
}

type MockStats struct{ mock.Mock }

func (m *MockStats) Handle(ctx context.Context, q queries.GetOrderStatsQuery) (queries.GetOrderStatsQueryResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(queries.GetOrderStatsQueryResponse), args.Error(1)
}

type fakeValidator struct{ valid bool }

func (f fakeValidator) Valid(string, map[string]string, string) bool { return f.valid }

type fixture struct {
	e            *echo.Echo
	token        string
	inbound      *MockInbound
	changeStatus *MockChangeStatus
	enqueue      *MockEnqueue
	getOrder     *MockGetOrder
	listOrders   *MockListOrders
	stats        *MockStats
	pingErr      error
}

func newFixture(t *testing.T, validator SignatureValidator) *fixture {
	t.Helper()
	f := &fixture{
		inbound:      &MockInbound{},
		changeStatus: &MockChangeStatus{},
		enqueue:      &MockEnqueue{},
		getOrder:     &MockGetOrder{},
		listOrders:   &MockListOrders{},
		stats:        &MockStats{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	f.token, _, err = tokens.GenerateToken("alice")
	require.NoError(t, err)

	server := NewServer(Handlers{
		Inbound:        f.inbound,
		ChangeStatus:   f.changeStatus,
		EnqueueContent: f.enqueue,
		GetOrder:       f.getOrder,
		ListOrders:     f.listOrders,
		Stats:          f.stats,
	}, logger)

	f.e, err = NewRouter(RouterConfig{
		Server:  server,
		Webhook: NewTwilioWebhook(server, validator, "https://bot.example.com"),
		Tokens:  tokens,
		Health:  func(context.Context) error { return f.pingErr },
		Logger:  logger,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) do(method, target, body string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authorized {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func Test_Health(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.pingErr = errors.New("db down")
	rec = f.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func Test_APIRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/orders", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_ListOrders(t *testing.T) {
	f := newFixture(t, nil)
	f.listOrders.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.ListOrdersQuery) bool {
		return q.Status() == order.New && q.Limit() == 10
	})).Return([]queries.OrderView{{
		ID:            7,
		UserID:        "whatsapp:+998901234567",
		ContactName:   "Анна",
		RequestedItem: "Школьная форма",
		Status:        order.New,
		CreatedAt:     now,
	}}, nil)

	rec := f.do(http.MethodGet, "/api/v1/orders?status=new&limit=10", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]servers.Order](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Id)
	assert.Equal(t, "new", got[0].Status)
	assert.Nil(t, got[0].Comment)

	rec = f.do(http.MethodGet, "/api/v1/orders?status=lost", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodGet, "/api/v1/orders?limit=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_GetOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.getOrder.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetOrderQuery) bool { return q.OrderID() == 7 })).
		Return(queries.GetOrderQueryResponse{
			Order: queries.OrderView{ID: 7, Status: order.Acknowledged},
			History: []order.StatusChange{
				{OrderID: 7, From: order.Unknown, To: order.New, Actor: "customer", At: now},
				{OrderID: 7, From: order.New, To: order.Acknowledged, Actor: "staff:alice", At: now.Add(time.Minute)},
			},
		}, nil)
	f.getOrder.On("Handle", mock.Anything, mock.Anything).
		Return(queries.GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", 8))

	rec := f.do(http.MethodGet, "/api/v1/orders/7", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[servers.OrderDetails](t, rec)
	assert.Equal(t, "acknowledged", got.Order.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, "staff:alice", got.History[1].Actor)

	rec = f.do(http.MethodGet, "/api/v1/orders/8", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/orders/x", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_ChangeOrderStatus(t *testing.T) {
	f := newFixture(t, nil)
	actorIsAlice := func(id uint64) any {
		return mock.MatchedBy(func(c commands.ChangeOrderStatusCommand) bool {
			return c.OrderID() == id && c.Actor() == "staff:alice"
		})
	}
	f.changeStatus.On("Handle", mock.Anything, actorIsAlice(7)).Return(commands.ChangeOrderStatusResult{
		Found:  true,
		Change: order.StatusChange{OrderID: 7, From: order.New, To: order.Acknowledged, Actor: "staff:alice", At: now},
	}, nil)
	f.changeStatus.On("Handle", mock.Anything, actorIsAlice(8)).Return(commands.ChangeOrderStatusResult{}, nil)
	f.changeStatus.On("Handle", mock.Anything, actorIsAlice(9)).
		Return(commands.ChangeOrderStatusResult{}, order.NewInvalidTransitionError(order.Fulfilled, order.New))

	t.Run("applied", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/orders/7/status", `{"status":"acknowledged"}`, true)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[servers.StatusChange](t, rec)
		assert.Equal(t, "new", got.From)
		assert.Equal(t, "acknowledged", got.To)
	})

	t.Run("not found", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/orders/8/status", `{"status":"acknowledged"}`, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid transition", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/orders/9/status", `{"status":"new"}`, true)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad status", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/orders/7/status", `{"status":"shipped"}`, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_GetStats(t *testing.T) {
	f := newFixture(t, nil)
	f.stats.On("Handle", mock.Anything, mock.Anything).Return(queries.GetOrderStatsQueryResponse{
		Total:           3,
		ByStatus:        map[order.Status]int64{order.New: 2, order.Fulfilled: 1},
		UniqueCustomers: 2,
	}, nil)

	rec := f.do(http.MethodGet, "/api/v1/stats", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[servers.Stats](t, rec)
	assert.Equal(t, int64(3), got.Total)
	assert.Equal(t, int64(2), got.ByStatus["new"])
	assert.Equal(t, int64(2), got.UniqueCustomers)

	rec = f.do(http.MethodGet, "/api/v1/stats?from=2026-05-02T00:00:00Z&to=2026-05-01T00:00:00Z", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_HandleEvent(t *testing.T) {
	f := newFixture(t, nil)
	f.inbound.On("Handle", mock.Anything, mock.MatchedBy(func(c commands.HandleInboundEventCommand) bool {
		m := c.Message()
		return m.UserID == "api:1" && m.Payload == "order" && m.LanguageCode == "uz"
	})).Return(commands.HandleInboundEventResult{
		Replies: []notifications.Rendered{{Text: "Ismingiz?"}},
		Step:    session.StepCollectName,
	}, nil)

	rec := f.do(http.MethodPost, "/api/v1/events", `{"user_id":"api:1","command":"order","language_code":"uz"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[servers.EventReply](t, rec)
	assert.Equal(t, session.StepCollectName.String(), got.Step)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "Ismingiz?", got.Replies[0].Text)
	assert.Nil(t, got.OrderId)

	rec = f.do(http.MethodPost, "/api/v1/events", `{"user_id":"api:1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_EnqueueContent(t *testing.T) {
	f := newFixture(t, nil)
	f.enqueue.On("Handle", mock.Anything, mock.Anything).
		Return(ports.ContentPost{ID: "p-1", Body: "Новая коллекция", StagedAt: now}, nil)

	rec := f.do(http.MethodPost, "/api/v1/content", `{"body":"Новая коллекция"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "p-1", decode[servers.ContentPost](t, rec).Id)

	rec = f.do(http.MethodPost, "/api/v1/content", `{"body":"  "}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func webhookRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("X-Twilio-Signature", "sig")
	return req
}

func Test_TwilioWebhook(t *testing.T) {
	form := url.Values{"From": {"whatsapp:+998901234567"}, "Body": {"Анна"}, "ProfileName": {"Anna"}}

	t.Run("valid signature", func(t *testing.T) {
		f := newFixture(t, fakeValidator{valid: true})
		f.inbound.On("Handle", mock.Anything, mock.MatchedBy(func(c commands.HandleInboundEventCommand) bool {
			return c.Message().UserID == "whatsapp:+998901234567" && c.Message().Text == "Анна"
		})).Return(commands.HandleInboundEventResult{}, nil).Once()

		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, webhookRequest(form))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<Response></Response>")
		f.inbound.AssertExpectations(t)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newFixture(t, fakeValidator{valid: false})
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, webhookRequest(form))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.inbound.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("media only", func(t *testing.T) {
		f := newFixture(t, nil)
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, webhookRequest(url.Values{"From": {"whatsapp:+998901234567"}, "NumMedia": {"1"}}))
		assert.Equal(t, http.StatusOK, rec.Code)
		f.inbound.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("storage failure asks for a retry", func(t *testing.T) {
		f := newFixture(t, nil)
		f.inbound.On("Handle", mock.Anything, mock.Anything).
			Return(commands.HandleInboundEventResult{}, errs.NewStorageError("save session", errors.New("disk full")))
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, webhookRequest(form))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
