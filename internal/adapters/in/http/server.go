package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/ports"
	"orderbot/internal/generated/servers"
	"orderbot/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type (
	InboundEventHandler interface {
		Handle(ctx context.Context, command commands.HandleInboundEventCommand) (commands.HandleInboundEventResult, error)
	}

	ChangeOrderStatusHandler interface {
		Handle(ctx context.Context, command commands.ChangeOrderStatusCommand) (commands.ChangeOrderStatusResult, error)
	}

	EnqueueContentHandler interface {
		Handle(ctx context.Context, command commands.EnqueueContentCommand) (ports.ContentPost, error)
	}

	GetOrderHandler interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
	}

	ListOrdersHandler interface {
		Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.OrderView, error)
	}

	GetOrderStatsHandler interface {
		Handle(ctx context.Context, query queries.GetOrderStatsQuery) (queries.GetOrderStatsQueryResponse, error)
	}
)

// Handlers groups the use cases the HTTP server exposes.
type Handlers struct {
	Inbound        InboundEventHandler
	ChangeStatus   ChangeOrderStatusHandler
	EnqueueContent EnqueueContentHandler
	GetOrder       GetOrderHandler
	ListOrders     ListOrdersHandler
	Stats          GetOrderStatsHandler
}

// Server implements servers.ServerInterface on top of the application use cases.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http")}
}

var _ servers.ServerInterface = (*Server)(nil)

// HandleEvent handles POST /api/v1/events.
func (s *Server) HandleEvent(ctx echo.Context) error {
	var body servers.HandleEventJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid request body")
	}

	msg := commands.InboundMessage{
		UserID:       body.UserId,
		Text:         deref(body.Text),
		Payload:      deref(body.Command),
		LanguageCode: deref(body.LanguageCode),
	}
	if body.Contact != nil {
		msg.ContactName = deref(body.Contact.Name)
		msg.ContactPhone = body.Contact.Phone
	}

	cmd, err := commands.NewHandleInboundEventCommand(msg)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid event: "+err.Error())
	}

	res, err := s.h.Inbound.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to handle event")
	}

	out := servers.EventReply{Replies: make([]servers.Reply, len(res.Replies)), Step: res.Step.String()}
	for i, r := range res.Replies {
		out.Replies[i] = servers.Reply{Text: r.Text}
		if len(r.Buttons) > 0 {
			buttons := r.Buttons
			out.Replies[i].Buttons = &buttons
		}
	}
	if res.OrderID != 0 {
		id := int64(res.OrderID)
		out.OrderId = &id
	}
	return ctx.JSON(http.StatusOK, out)
}

// EnqueueContent handles POST /api/v1/content.
func (s *Server) EnqueueContent(ctx echo.Context) error {
	var body servers.EnqueueContentJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid request body")
	}
	cmd, err := commands.NewEnqueueContentCommand(body.Body)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid post: "+err.Error())
	}

	post, err := s.h.EnqueueContent.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to stage post")
	}
	return ctx.JSON(http.StatusCreated, servers.ContentPost{Id: post.ID, Body: post.Body, StagedAt: post.StagedAt})
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(ctx echo.Context, params servers.ListOrdersParams) error {
	status := order.Unknown
	if params.Status != nil && *params.Status != "" {
		parsed, err := order.ParseStatus(*params.Status)
		if err != nil {
			return jsonError(ctx, http.StatusBadRequest, "Invalid status")
		}
		status = parsed
	}

	query, err := queries.NewListOrdersQuery(status, derefInt(params.Limit), derefInt(params.Offset))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid query: "+err.Error())
	}

	views, err := s.h.ListOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve orders")
	}

	response := make([]servers.Order, len(views))
	for i, v := range views {
		response[i] = toOrder(v)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, orderId int64) error {
	if orderId <= 0 {
		return jsonError(ctx, http.StatusBadRequest, "Invalid order id")
	}
	query, err := queries.NewGetOrderQuery(uint64(orderId))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid order id")
	}

	res, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve order")
	}

	history := make([]servers.StatusChange, len(res.History))
	for i, c := range res.History {
		history[i] = toStatusChange(c)
	}
	return ctx.JSON(http.StatusOK, servers.OrderDetails{Order: toOrder(res.Order), History: history})
}

// ChangeOrderStatus handles POST /api/v1/orders/{orderId}/status.
func (s *Server) ChangeOrderStatus(ctx echo.Context, orderId int64) error {
	var body servers.ChangeOrderStatusJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid request body")
	}
	if orderId <= 0 {
		return jsonError(ctx, http.StatusBadRequest, "Invalid order id")
	}
	status, err := order.ParseStatus(body.Status)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid status")
	}

	cmd, err := commands.NewChangeOrderStatusCommand(uint64(orderId), status, StaffActor(ctx))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid status change: "+err.Error())
	}

	res, err := s.h.ChangeStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to change status")
	}
	if !res.Found {
		return jsonError(ctx, http.StatusNotFound, "Order not found")
	}
	return ctx.JSON(http.StatusOK, toStatusChange(res.Change))
}

// GetStats handles GET /api/v1/stats.
func (s *Server) GetStats(ctx echo.Context, params servers.GetStatsParams) error {
	query := queries.NewGetOrderStatsQuery(params.From, params.To)
	if err := query.Validate(); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid range: "+err.Error())
	}

	stats, err := s.h.Stats.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to compute stats")
	}

	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[status.String()] = n
	}
	return ctx.JSON(http.StatusOK, servers.Stats{
		Total:           stats.Total,
		ByStatus:        byStatus,
		UniqueCustomers: stats.UniqueCustomers,
	})
}

// fail maps domain errors to HTTP statuses and logs the unexpected ones.
func (s *Server) fail(ctx echo.Context, err error, message string) error {
	var invalid *order.InvalidTransitionError
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return jsonError(ctx, http.StatusNotFound, "Order not found")
	case errors.As(err, &invalid):
		return jsonError(ctx, http.StatusConflict, invalid.Error())
	case errors.Is(err, errs.ErrVersionIsInvalid):
		return jsonError(ctx, http.StatusConflict, "Order was changed concurrently, retry")
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	}

	s.logger.ErrorContext(ctx.Request().Context(), message,
		"path", ctx.Path(),
		"error", err,
	)
	return jsonError(ctx, http.StatusInternalServerError, message)
}

func jsonError(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, servers.Error{Code: code, Message: message})
}

func toOrder(v queries.OrderView) servers.Order {
	o := servers.Order{
		Id:                 int64(v.ID),
		UserId:             v.UserID,
		Locale:             v.Locale,
		ContactName:        v.ContactName,
		Phone:              v.Phone,
		Locality:           v.Locality,
		RequestedItem:      v.RequestedItem,
		Size:               v.SizeDescriptor,
		Status:             v.Status.String(),
		CreatedAt:          v.CreatedAt,
		LastStatusChangeAt: v.LastStatusChangeAt,
		LastReminderAt:     v.LastReminderAt,
	}
	if strings.TrimSpace(v.Comment) != "" {
		comment := v.Comment
		o.Comment = &comment
	}
	return o
}

func toStatusChange(c order.StatusChange) servers.StatusChange {
	return servers.StatusChange{From: c.From.String(), To: c.To.String(), Actor: c.Actor, At: c.At}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
