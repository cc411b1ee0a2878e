package commands_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"orderbot/internal/adapters/out/postgres"
	"orderbot/internal/adapters/out/postgres/sessionrepo"
	"orderbot/internal/adapters/out/report"
	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/pkg/clock"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/i18n"
	"orderbot/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	customer = "whatsapp:+998901234567"
	staffID  = "whatsapp:+998711234567"
)

type gormUoWFactory struct {
	f *postgres.GormUnitOfWorkFactory
}

func (g gormUoWFactory) Create() commands.OrderUoW {
	return g.f.Create()
}

// flakySessions fails the next Save when failNext is set.
type flakySessions struct {
	*sessionrepo.GormSessionRepository
	failNext bool
}

func (f *flakySessions) Save(ctx context.Context, sess *session.Session) error {
	if f.failNext {
		f.failNext = false
		return errors.New("connection reset")
	}
	return f.GormSessionRepository.Save(ctx, sess)
}

type InboundHandlerTestSuite struct {
	suite.Suite
	clock    *clock.Manual
	sender   *recordingSender
	sessions *flakySessions
	orders   *postgres.GormUnitOfWorkFactory
	catalog  *i18n.Catalog
	handler  *commands.HandleInboundEventCommandHandler
}

func (s *InboundHandlerTestSuite) SetupTest() {
	db := testdb.SQLite(s.T())
	catalog, err := i18n.Default()
	s.Require().NoError(err)

	s.catalog = catalog
	s.clock = clock.NewManual(now)
	s.sender = &recordingSender{}
	s.sessions = &flakySessions{GormSessionRepository: sessionrepo.NewGormSessionRepository(db)}
	s.orders = postgres.NewGormUnitOfWorkFactory(db)

	renderer := notifications.NewRenderer(catalog)
	dispatcher := notifications.NewDispatcher(s.sender, renderer, []string{"+998711234567"}, kernel.LocaleRU, discard())
	factory := gormUoWFactory{f: s.orders}
	reports, err := report.NewCSVGenerator(s.T().TempDir(), nil)
	s.Require().NoError(err)

	s.handler = commands.NewHandleInboundEventCommandHandler(commands.HandleInboundEventDeps{
		Sessions:      s.sessions,
		UoWFactory:    factory,
		Notifier:      dispatcher,
		Renderer:      renderer,
		Classifier:    commands.NewClassifier(catalog),
		StatusChanger: commands.NewChangeOrderStatusCommandHandler(factory, dispatcher, s.clock, discard()),
		Stats:         queries.NewGetOrderStatsQueryHandler(db),
		Exporter:      commands.NewExportOrdersCommandHandler(factory, reports, discard()),
		Machine:       services.NewConversationMachine(),
		Clock:         s.clock,
		SessionTTL:    24 * time.Hour,
		Logger:        discard(),
	})
}

func (s *InboundHandlerTestSuite) send(msg commands.InboundMessage) commands.HandleInboundEventResult {
	cmd, err := commands.NewHandleInboundEventCommand(msg)
	s.Require().NoError(err)
	res, err := s.handler.Handle(s.T().Context(), cmd)
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	return res
}

func (s *InboundHandlerTestSuite) text(userID, text string) commands.HandleInboundEventResult {
	return s.send(commands.InboundMessage{UserID: userID, Text: text})
}

func (s *InboundHandlerTestSuite) button(userID, token string) commands.HandleInboundEventResult {
	return s.send(commands.InboundMessage{UserID: userID, Payload: token})
}

func (s *InboundHandlerTestSuite) completeFlow(userID string) commands.HandleInboundEventResult {
	s.fillForm(userID)
	return s.button(userID, "confirm")
}

func (s *InboundHandlerTestSuite) fillForm(userID string) {
	s.button(userID, "order")
	s.text(userID, "Анна")
	s.text(userID, "90 123 45 67")
	s.text(userID, "Ташкент, Юнусабад")
	s.text(userID, "Школьная форма")
	s.text(userID, "7 лет, 125 см")
	res := s.button(userID, "skip")
	s.Require().Equal(session.StepReview, res.Step)
}

func (s *InboundHandlerTestSuite) TestFirstContact_Welcome() {
	res := s.text(customer, "Здравствуйте")

	s.Equal(session.StepIdle, res.Step)
	s.Require().Len(res.Replies, 1)
	s.Equal(s.catalog.Text("ru", "welcome", map[string]string{"order": s.catalog.Label("ru", "order")}), res.Replies[0].Text)
	s.Len(s.sender.to(customer), 1)
}

func (s *InboundHandlerTestSuite) TestFirstContact_DetectsLocale() {
	s.send(commands.InboundMessage{UserID: customer, Text: "Salom", LanguageCode: "uz-UZ"})

	stored, err := s.sessions.Get(s.T().Context(), customer)
	s.Require().NoError(err)
	s.Equal(kernel.LocaleUZ, stored.Locale())
}

func (s *InboundHandlerTestSuite) TestFullFlow_CreatesOrderAndNotifies() {
	res := s.completeFlow(customer)

	s.EqualValues(1, res.OrderID)
	s.Equal(session.StepIdle, res.Step)

	o, err := s.orders.Create().OrderRepository().Get(s.T().Context(), res.OrderID)
	s.Require().NoError(err)
	s.Equal("+998901234567", o.Phone())
	s.Equal("age 7, height 125 cm", o.SizeDescriptor())
	s.Empty(o.Comment())
	s.Equal(order.New, o.Status())

	staffMsgs := s.sender.to("+998711234567")
	s.Require().Len(staffMsgs, 1)
	s.Contains(staffMsgs[0].Text, "ack:1")

	customerMsgs := s.sender.to(customer)
	last := customerMsgs[len(customerMsgs)-1]
	s.Contains(last.Text, "1")
	s.Equal(last.Text, res.Replies[len(res.Replies)-1].Text)
}

func (s *InboundHandlerTestSuite) TestConfirmAgain_NothingToConfirm() {
	s.completeFlow(customer)
	res := s.button(customer, "confirm")

	s.Zero(res.OrderID)
	s.Equal(session.StepIdle, res.Step)
	s.Equal(s.catalog.Text("ru", "nothing_to_confirm", nil), res.Replies[0].Text)
}

func (s *InboundHandlerTestSuite) TestConfirmRedeliveredAfterSessionSaveFailure() {
	ctx := s.T().Context()
	s.fillForm(customer)
	s.sender.reset()

	s.sessions.failNext = true
	cmd, err := commands.NewHandleInboundEventCommand(commands.InboundMessage{UserID: customer, Payload: "confirm"})
	s.Require().NoError(err)
	_, err = s.handler.Handle(ctx, cmd)
	s.Require().ErrorIs(err, errs.ErrStorage)
	s.Empty(s.sender.to("+998711234567"))
	s.clock.Advance(time.Minute)

	res := s.button(customer, "confirm")

	s.EqualValues(1, res.OrderID)
	s.Equal(session.StepIdle, res.Step)
	s.Len(s.sender.to("+998711234567"), 1)
	customerMsgs := s.sender.to(customer)
	s.Require().NotEmpty(customerMsgs)
	s.Contains(customerMsgs[len(customerMsgs)-1].Text, "1")

	orders, err := s.orders.Create().OrderRepository().ListCreatedBetween(ctx, now.Add(-time.Hour), now.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Len(orders, 1)

	again := s.button(customer, "confirm")
	s.Zero(again.OrderID)
	s.Len(s.sender.to("+998711234567"), 1)
}

func (s *InboundHandlerTestSuite) TestInvalidPhone_StaysOnStep() {
	s.button(customer, "order")
	s.text(customer, "Анна")
	res := s.text(customer, "12345")

	s.Equal(session.StepCollectPhone, res.Step)
	s.Require().Len(res.Replies, 2)
	s.Equal(s.catalog.Text("ru", "invalid_phone", nil), res.Replies[0].Text)
}

func (s *InboundHandlerTestSuite) TestExpiredSession_StartsOver() {
	s.button(customer, "order")
	s.text(customer, "Анна")
	s.clock.Advance(25 * time.Hour)

	res := s.text(customer, "90 123 45 67")
	s.Equal(session.StepIdle, res.Step)
}

func (s *InboundHandlerTestSuite) TestStaffAck_UpdatesOrderAndTellsCustomer() {
	created := s.completeFlow(customer)
	s.sender.reset()

	res := s.button(staffID, "ack:1")
	s.Require().Len(res.Replies, 1)
	s.Contains(res.Replies[0].Text, "1")

	o, err := s.orders.Create().OrderRepository().Get(s.T().Context(), created.OrderID)
	s.Require().NoError(err)
	s.Equal(order.Acknowledged, o.Status())
	s.Len(s.sender.to(customer), 1)
}

func (s *InboundHandlerTestSuite) TestStaffInvalidTransition() {
	s.completeFlow(customer)
	res := s.text(staffID, "done 1")

	s.Equal(s.catalog.Text("ru", "staff_invalid_transition", map[string]string{
		"order_id": "1",
		"from":     s.catalog.Status("ru", "new"),
		"to":       s.catalog.Status("ru", "fulfilled"),
	}), res.Replies[0].Text)
}

func (s *InboundHandlerTestSuite) TestStaffUnknownOrder() {
	res := s.text(staffID, "/status 99 acknowledged")
	s.Equal(s.catalog.Text("ru", "staff_order_not_found", map[string]string{"order_id": "99"}), res.Replies[0].Text)
}

func (s *InboundHandlerTestSuite) TestStaffStats() {
	s.completeFlow(customer)
	res := s.text(staffID, "/stats")
	s.Contains(res.Replies[0].Text, "1")
}

func (s *InboundHandlerTestSuite) TestNonStaffCommand_Refused() {
	res := s.text(customer, "/stats")
	s.Equal(s.catalog.Text("ru", "staff_only", nil), res.Replies[0].Text)

	res = s.text(customer, "/export")
	s.Equal(s.catalog.Text("ru", "staff_only", nil), res.Replies[0].Text)
	for _, m := range s.sender.to(customer) {
		s.Empty(m.Attachment)
	}
}

func (s *InboundHandlerTestSuite) TestStaffExport() {
	res := s.text(staffID, "/export")
	s.Equal(s.catalog.Text("ru", "export_empty", nil), res.Replies[0].Text)
	sent := s.sender.to(staffID)
	s.Require().Len(sent, 1)
	s.Empty(sent[0].Attachment)

	s.completeFlow(customer)
	s.completeFlow("whatsapp:+998935554433")
	s.sender.reset()

	res = s.text(staffID, "/export")
	s.Equal(s.catalog.Text("ru", "export_ready", map[string]string{"count": "2"}), res.Replies[0].Text)
	sent = s.sender.to(staffID)
	s.Require().Len(sent, 1, "only the requester receives the file")
	s.Equal(res.Replies[0].Text, sent[0].Text)
	s.Equal(".csv", filepath.Ext(sent[0].Attachment))
	s.FileExists(sent[0].Attachment)
}

func TestInboundHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(InboundHandlerTestSuite))
}

func TestHandleInboundEventCommandHandler_CreateFailureKeepsReview(t *testing.T) {
	ctx := t.Context()
	catalog, err := i18n.Default()
	require.NoError(t, err)
	renderer := notifications.NewRenderer(catalog)

	sess, err := session.NewSession(customer, kernel.LocaleRU, now)
	require.NoError(t, err)
	require.NoError(t, sess.StartFlow(kernel.NewUUID(), now))
	values := map[session.Field]string{
		session.FieldName:     "Анна",
		session.FieldPhone:    "+998901234567",
		session.FieldLocality: "Ташкент",
		session.FieldItem:     "Куртка",
		session.FieldSize:     "7 лет, 125 см",
		session.FieldComment:  "-",
	}
	for _, f := range session.Fields() {
		next := session.StepReview
		require.NoError(t, sess.Collect(f, values[f], next, now))
	}

	sessions := new(MockSessionRepository)
	sessions.On("Get", ctx, customer).Return(sess, nil).Once()
	sessions.On("Save", ctx, sess).Return(nil).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(repo).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*order.Order")).
		Return(uint64(0), errs.NewStorageError("create order", errors.New("connection reset"))).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	notifier := new(MockNotifier)
	notifier.On("Reply", ctx, customer, kernel.LocaleRU, mock.MatchedBy(func(p []services.Prompt) bool {
		return len(p) == 2 && p[0].Key == services.PromptSaveFailed && p[1].Key == services.PromptReview
	})).Return([]notifications.Rendered{{Text: "save failed"}, {Text: "review"}}).Once()

	h := commands.NewHandleInboundEventCommandHandler(commands.HandleInboundEventDeps{
		Sessions:   sessions,
		UoWFactory: factory,
		Notifier:   notifier,
		Renderer:   renderer,
		Classifier: commands.NewClassifier(catalog),
		Machine:    services.NewConversationMachine(),
		Clock:      clock.NewManual(now),
		SessionTTL: 24 * time.Hour,
		Logger:     discard(),
	})

	cmd, err := commands.NewHandleInboundEventCommand(commands.InboundMessage{UserID: customer, Payload: "confirm"})
	require.NoError(t, err)
	res, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Zero(t, res.OrderID)
	assert.Equal(t, session.StepReview, res.Step)
	assert.Len(t, res.Replies, 2)
	notifier.AssertNotCalled(t, "NotifyOrderCreated", mock.Anything, mock.Anything)
	sessions.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestNewHandleInboundEventCommand_Validation(t *testing.T) {
	_, err := commands.NewHandleInboundEventCommand(commands.InboundMessage{Text: "hi"})
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = commands.NewHandleInboundEventCommand(commands.InboundMessage{UserID: "u", Text: "  "})
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	assert.ErrorIs(t, commands.HandleInboundEventCommand{}.Validate(), commands.ErrHandleInboundEventCommandIsNotConstructed)
}
