package commands

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"
)

type (
	statusChanger interface {
		Handle(ctx context.Context, command ChangeOrderStatusCommand) (ChangeOrderStatusResult, error)
	}

	statsReader interface {
		Handle(ctx context.Context, query queries.GetOrderStatsQuery) (queries.GetOrderStatsQueryResponse, error)
	}

	orderExporter interface {
		Handle(ctx context.Context, command ExportOrdersCommand) (ExportOrdersResult, error)
	}
)

// HandleInboundEventResult is what the engine answered.
type HandleInboundEventResult struct {
	Replies []notifications.Rendered
	// OrderID is set when this event created an order.
	OrderID uint64
	Step    session.Step
}

// HandleInboundEventDeps groups the collaborators of the inbound handler.
type HandleInboundEventDeps struct {
	Sessions      ports.SessionRepository
	UoWFactory    OrderUoWFactory
	Notifier      Notifier
	Renderer      notifications.Renderer
	Classifier    Classifier
	StatusChanger statusChanger
	Stats         statsReader
	Exporter      orderExporter
	Machine       services.ConversationMachine
	Clock         ports.Clock
	SessionTTL    time.Duration
	Logger        *slog.Logger
}

// HandleInboundEventCommandHandler runs one inbound message through the
// conversation machine: it loads the session, applies the event, creates the
// order on confirmation, stores the session and sends the replies. Events of
// one user are handled one at a time.
type HandleInboundEventCommandHandler struct {
	deps   HandleInboundEventDeps
	locks  *userLocks
	logger *slog.Logger
}

func NewHandleInboundEventCommandHandler(deps HandleInboundEventDeps) *HandleInboundEventCommandHandler {
	return &HandleInboundEventCommandHandler{
		deps:   deps,
		locks:  newUserLocks(),
		logger: deps.Logger.With("component", "conversation"),
	}
}

func (h *HandleInboundEventCommandHandler) Handle(
	ctx context.Context,
	command HandleInboundEventCommand,
) (HandleInboundEventResult, error) {
	if err := command.Validate(); err != nil {
		return HandleInboundEventResult{}, err
	}
	msg := command.Message()

	unlock := h.locks.Lock(msg.UserID)
	defer unlock()

	now := h.deps.Clock.Now()
	sess, err := h.loadSession(ctx, msg, now)
	if err != nil {
		return HandleInboundEventResult{}, err
	}

	event, staffReq := h.deps.Classifier.Classify(msg)
	if staffReq != nil {
		return h.handleStaff(ctx, msg.UserID, sess, *staffReq)
	}

	out, err := h.deps.Machine.Handle(sess, event, now)
	if err != nil {
		return HandleInboundEventResult{}, err
	}

	var (
		orderID   uint64
		created   *order.Order
		afterSave []services.Prompt
	)
	if out.Confirm != nil {
		orderID, created, err = h.createOrder(ctx, *out.Confirm, now)
		if err != nil {
			h.logger.ErrorContext(ctx, "order creation failed",
				"user_id", msg.UserID,
				"flow_id", out.Confirm.FlowID.String(),
				"error", err,
			)
			out.Prompts = append(out.Prompts, h.deps.Machine.ConfirmFailed(sess, now).Prompts...)
		} else {
			afterSave = h.deps.Machine.ConfirmSucceeded(sess, orderID, now).Prompts
		}
	}

	if err = h.deps.Sessions.Save(ctx, sess); err != nil {
		return HandleInboundEventResult{}, errs.NewStorageError("save session", err)
	}
	if out.Transitioned() {
		h.logger.DebugContext(ctx, "conversation transition",
			"user_id", msg.UserID,
			"from", out.From.String(),
			"to", out.To.String(),
		)
	}

	replies := h.deps.Notifier.Reply(ctx, msg.UserID, sess.Locale(), out.Prompts)
	if created != nil {
		h.logger.InfoContext(ctx, "order created", "order_id", orderID, "user_id", msg.UserID)
		_ = h.deps.Notifier.NotifyOrderCreated(ctx, created)
	}
	// the customer confirmation goes out with the order notification
	replies = append(replies, h.deps.Renderer.RenderAll(sess.Locale(), afterSave)...)

	return HandleInboundEventResult{Replies: replies, OrderID: orderID, Step: sess.Step()}, nil
}

func (h *HandleInboundEventCommandHandler) loadSession(
	ctx context.Context,
	msg InboundMessage,
	now time.Time,
) (*session.Session, error) {
	sess, err := h.deps.Sessions.Get(ctx, msg.UserID)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return session.NewSession(msg.UserID, kernel.DetectLocale(msg.LanguageCode), now)
	case err != nil:
		return nil, errs.NewStorageError("load session", err)
	}

	if sess.IsExpired(h.deps.SessionTTL, now) {
		h.logger.InfoContext(ctx, "session expired, starting over",
			"user_id", msg.UserID,
			"step", sess.Step().String(),
		)
		sess.Reset(now)
	}
	return sess, nil
}

// createOrder stores the order and returns the order to announce. A flow
// that is already stored was committed by an attempt whose session write
// failed before anyone was notified, so the stored order is announced now.
func (h *HandleInboundEventCommandHandler) createOrder(
	ctx context.Context,
	draft order.Draft,
	now time.Time,
) (uint64, *order.Order, error) {
	o, err := order.NewOrder(draft, now)
	if err != nil {
		return 0, nil, err
	}

	uow := h.deps.UoWFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return 0, nil, errs.NewStorageError("begin", err)
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	id, err := repo.Create(ctx, o)
	if err != nil {
		return 0, nil, err
	}
	if !slices.Contains(uow.TrackedIDs(), id) {
		if o, err = repo.Get(ctx, id); err != nil {
			return 0, nil, err
		}
		h.logger.InfoContext(ctx, "confirmation replayed for stored order", "order_id", id, "flow_id", draft.FlowID.String())
	}
	if err = uow.Commit(ctx); err != nil {
		return 0, nil, errs.NewStorageError("commit", err)
	}
	return id, o, nil
}

func (h *HandleInboundEventCommandHandler) handleStaff(
	ctx context.Context,
	userID string,
	sess *session.Session,
	req StaffRequest,
) (HandleInboundEventResult, error) {
	n := h.deps.Notifier
	result := HandleInboundEventResult{Step: sess.Step()}

	if !n.IsStaff(userID) {
		text := h.deps.Renderer.Text(sess.Locale(), "staff_only", nil)
		_ = n.SendText(ctx, userID, sess.Locale(), text)
		result.Replies = []notifications.Rendered{{Text: text}}
		return result, nil
	}

	locale := n.StaffLocale()
	if req.Action == StaffExport {
		text, err := h.export(ctx, userID, locale)
		if err != nil {
			return HandleInboundEventResult{}, err
		}
		result.Replies = []notifications.Rendered{{Text: text}}
		return result, nil
	}

	text, err := h.staffReply(ctx, userID, locale, req)
	if err != nil {
		return HandleInboundEventResult{}, err
	}
	_ = n.SendText(ctx, userID, locale, text)
	result.Replies = []notifications.Rendered{{Text: text}}
	return result, nil
}

// export sends the report of all orders to the requesting staff member.
func (h *HandleInboundEventCommandHandler) export(ctx context.Context, userID string, locale kernel.Locale) (string, error) {
	r := h.deps.Renderer
	if h.deps.Exporter == nil {
		text := r.Text(locale, "staff_usage", nil)
		_ = h.deps.Notifier.SendText(ctx, userID, locale, text)
		return text, nil
	}

	cmd, err := NewExportOrdersCommand(h.deps.Clock.Now())
	if err != nil {
		return "", err
	}
	res, err := h.deps.Exporter.Handle(ctx, cmd)
	if err != nil {
		return "", err
	}
	if res.Count == 0 {
		text := r.Text(locale, "export_empty", nil)
		_ = h.deps.Notifier.SendText(ctx, userID, locale, text)
		return text, nil
	}

	text := r.Text(locale, "export_ready", map[string]string{"count": strconv.Itoa(res.Count)})
	_ = h.deps.Notifier.SendFile(ctx, userID, locale, text, res.Path)
	h.logger.InfoContext(ctx, "export sent to staff", "user_id", userID, "orders", res.Count)
	return text, nil
}

func (h *HandleInboundEventCommandHandler) staffReply(
	ctx context.Context,
	userID string,
	locale kernel.Locale,
	req StaffRequest,
) (string, error) {
	r := h.deps.Renderer
	switch req.Action {
	case StaffStats:
		stats, err := h.deps.Stats.Handle(ctx, queries.NewGetOrderStatsQuery(nil, nil))
		if err != nil {
			return "", err
		}
		return StatsText(r, locale, stats), nil

	case StaffSetStatus:
		id := strconv.FormatUint(req.OrderID, 10)
		cmd, err := NewChangeOrderStatusCommand(req.OrderID, req.Status, userID)
		if err != nil {
			return r.Text(locale, "staff_usage", nil), nil
		}
		res, err := h.deps.StatusChanger.Handle(ctx, cmd)
		var invalid *order.InvalidTransitionError
		switch {
		case errors.As(err, &invalid):
			return r.Text(locale, "staff_invalid_transition", map[string]string{
				"order_id": id,
				"from":     r.Status(locale, invalid.From),
				"to":       r.Status(locale, invalid.To),
			}), nil
		case err != nil:
			return "", err
		case !res.Found:
			return r.Text(locale, "staff_order_not_found", map[string]string{"order_id": id}), nil
		}
		return r.Text(locale, "staff_status_updated", map[string]string{
			"order_id": id,
			"from":     r.Status(locale, res.Change.From),
			"to":       r.Status(locale, res.Change.To),
		}), nil

	default:
		return r.Text(locale, "staff_usage", nil), nil
	}
}

// StatsText renders order counts for staff.
func StatsText(r notifications.Renderer, locale kernel.Locale, stats queries.GetOrderStatsQueryResponse) string {
	args := map[string]string{"total": strconv.FormatInt(stats.Total, 10)}
	for _, s := range order.Statuses() {
		args[s.String()] = strconv.FormatInt(stats.ByStatus[s], 10)
	}
	return r.Text(locale, "stats", args)
}
