package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"
)

// Staff action tokens. They carry the order id, e.g. "ack:42".
const (
	ActionAcknowledge = "ack"
	ActionStartWork   = "work"
	ActionFulfil      = "done"
	ActionReject      = "reject"
)

// ActionStatuses maps staff action tokens to the status they request.
var ActionStatuses = map[string]order.Status{
	ActionAcknowledge: order.Acknowledged,
	ActionStartWork:   order.InProgress,
	ActionFulfil:      order.Fulfilled,
	ActionReject:      order.Cancelled,
}

// Dispatcher delivers customer replies and staff notifications. Delivery
// failures are logged and returned for inspection, never retried here: a
// state change that already happened stands regardless of notification.
type Dispatcher struct {
	sender      ports.MessageSender
	renderer    Renderer
	staff       []string
	staffLocale kernel.Locale
	logger      *slog.Logger
}

func NewDispatcher(
	sender ports.MessageSender,
	renderer Renderer,
	staff []string,
	staffLocale kernel.Locale,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		renderer:    renderer,
		staff:       append([]string(nil), staff...),
		staffLocale: staffLocale,
		logger:      logger.With("component", "notification_dispatcher"),
	}
}

// IsStaff reports whether a user id belongs to the staff audience.
func (d *Dispatcher) IsStaff(userID string) bool {
	for _, s := range d.staff {
		if sameRecipient(s, userID) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) StaffLocale() kernel.Locale {
	return d.staffLocale
}

func (d *Dispatcher) Renderer() Renderer {
	return d.renderer
}

// Reply renders prompts for one user and sends them in order.
func (d *Dispatcher) Reply(ctx context.Context, userID string, locale kernel.Locale, prompts []services.Prompt) []Rendered {
	rendered := d.renderer.RenderAll(locale, prompts)
	for _, r := range rendered {
		_ = d.send(ctx, ports.OutboundMessage{Recipient: userID, Locale: locale, Text: r.Text, Buttons: r.Buttons})
	}
	return rendered
}

// SendText sends an already rendered text to one recipient.
func (d *Dispatcher) SendText(ctx context.Context, recipient string, locale kernel.Locale, text string) error {
	return d.send(ctx, ports.OutboundMessage{Recipient: recipient, Locale: locale, Text: text})
}

// SendFile delivers text with the file at path attached.
func (d *Dispatcher) SendFile(ctx context.Context, recipient string, locale kernel.Locale, text, path string) error {
	return d.send(ctx, ports.OutboundMessage{Recipient: recipient, Locale: locale, Text: text, Attachment: path})
}

// NotifyOrderCreated sends the new order to staff with status actions and a
// confirmation to the customer.
func (d *Dispatcher) NotifyOrderCreated(ctx context.Context, o *order.Order) error {
	id := strconv.FormatUint(o.ID(), 10)
	actions := []string{
		ActionAcknowledge + ":" + id,
		ActionStartWork + ":" + id,
		ActionFulfil + ":" + id,
		ActionReject + ":" + id,
	}
	text := d.renderer.Text(d.staffLocale, "staff_new_order", map[string]string{"order_id": id}) +
		"\n" + d.renderer.OrderDetails(d.staffLocale, o) +
		"\n" + d.renderer.Text(d.staffLocale, "staff_actions", map[string]string{"actions": strings.Join(actions, " / ")})

	staffErr := d.NotifyStaff(ctx, ports.OutboundMessage{Text: text})
	customerErr := d.send(ctx, ports.OutboundMessage{
		Recipient: o.UserID(),
		Locale:    o.Locale(),
		Text:      d.renderer.Text(o.Locale(), string(services.PromptThanks), map[string]string{"order_id": id}),
	})
	return errors.Join(staffErr, customerErr)
}

// NotifyStatusChanged tells the customer about a visible status change.
func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, o *order.Order, from, to order.Status) error {
	if from == to || !to.IsCustomerVisible() {
		return nil
	}
	text := d.renderer.Text(o.Locale(), "status_changed", map[string]string{
		"order_id": strconv.FormatUint(o.ID(), 10),
		"status":   d.renderer.Status(o.Locale(), to),
	})
	return d.send(ctx, ports.OutboundMessage{Recipient: o.UserID(), Locale: o.Locale(), Text: text})
}

// NotifyEscalation sends one batched reminder listing all stale orders.
// It reports whether at least one staff recipient received it.
func (d *Dispatcher) NotifyEscalation(ctx context.Context, orders []*order.Order, now time.Time) (bool, error) {
	if len(orders) == 0 {
		return false, nil
	}
	lines := []string{d.renderer.Text(d.staffLocale, "escalation_header", map[string]string{
		"count": strconv.Itoa(len(orders)),
	})}
	for _, o := range orders {
		lines = append(lines, d.renderer.Text(d.staffLocale, "escalation_line", map[string]string{
			"order_id": strconv.FormatUint(o.ID(), 10),
			"name":     o.ContactName(),
			"phone":    o.Phone(),
			"status":   d.renderer.Status(d.staffLocale, o.Status()),
			"age":      strconv.Itoa(int(now.Sub(o.CreatedAt()).Minutes())),
		}))
	}

	delivered, err := d.notifyStaff(ctx, ports.OutboundMessage{Text: strings.Join(lines, "\n")})
	return delivered > 0, err
}

// NotifyStaff sends the same message to every staff recipient.
func (d *Dispatcher) NotifyStaff(ctx context.Context, msg ports.OutboundMessage) error {
	_, err := d.notifyStaff(ctx, msg)
	return err
}

func (d *Dispatcher) notifyStaff(ctx context.Context, msg ports.OutboundMessage) (int, error) {
	if len(d.staff) == 0 {
		d.logger.WarnContext(ctx, "no staff recipients configured, staff message dropped")
		return 0, nil
	}
	var failures []error
	delivered := 0
	for _, recipient := range d.staff {
		m := msg
		m.Recipient = recipient
		m.Locale = d.staffLocale
		if err := d.send(ctx, m); err != nil {
			failures = append(failures, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(failures...)
}

func (d *Dispatcher) send(ctx context.Context, msg ports.OutboundMessage) error {
	if err := d.sender.Send(ctx, msg); err != nil {
		derr := errs.NewDeliveryError(msg.Recipient, err)
		d.logger.ErrorContext(ctx, "message delivery failed",
			"recipient", msg.Recipient,
			"error", err,
		)
		return derr
	}
	return nil
}

func sameRecipient(a, b string) bool {
	return strings.TrimPrefix(a, "whatsapp:") == strings.TrimPrefix(b, "whatsapp:")
}
