package order

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrIDAlreadyAssigned guards against re-identifying a persisted order.
	ErrIDAlreadyAssigned = errors.New("order id is already assigned")
)

const (
	MaxTextLength    = 200
	MaxCommentLength = 500
)

// Draft is the collected, already validated content of an intake flow.
type Draft struct {
	FlowID         kernel.UUID
	UserID         string
	Locale         kernel.Locale
	ContactName    string
	Phone          kernel.PhoneNumber
	Locality       string
	RequestedItem  string
	SizeDescriptor kernel.SizeDescriptor
	Comment        string
}

// Snapshot is the flat representation used to persist and restore an Order.
type Snapshot struct {
	ID                 uint64
	FlowID             string
	UserID             string
	Locale             string
	ContactName        string
	Phone              string
	Locality           string
	RequestedItem      string
	SizeDescriptor     string
	Comment            string
	Status             Status
	CreatedAt          time.Time
	LastStatusChangeAt time.Time
	LastReminderAt     *time.Time
}

// Order is the aggregate root for a confirmed customer request.
//
// Order follows these invariants:
//   - Has a flow identifier shared with the conversation that produced it
//   - Contact name, phone, locality, item and size are always present
//   - Status transitions follow the status graph
//   - The last reminder time, when set, is not before the creation time
//
// The id is zero until the repository assigns one.
type Order struct {
	id                 uint64
	flowID             kernel.UUID
	userID             string
	locale             kernel.Locale
	contactName        string
	phone              string
	locality           string
	requestedItem      string
	sizeDescriptor     string
	comment            string
	status             Status
	createdAt          time.Time
	lastStatusChangeAt time.Time
	lastReminderAt     *time.Time
	guard              guard.ConstructorGuard
}

// NewOrder creates an order in status New from a confirmed draft.
//
// Example:
//
//	o, err := order.NewOrder(draft, now)
//	if err != nil {
//	    // the draft is incomplete
//	}
func NewOrder(d Draft, now time.Time) (*Order, error) {
	if err := errors.Join(
		validateFlowID(d.FlowID),
		requiredText("userID", d.UserID, MaxTextLength),
		d.Locale.Validate(),
		requiredText("contactName", d.ContactName, MaxTextLength),
		d.Phone.Validate(),
		requiredText("locality", d.Locality, MaxTextLength),
		requiredText("requestedItem", d.RequestedItem, MaxTextLength),
		d.SizeDescriptor.Validate(),
		optionalText("comment", d.Comment, MaxCommentLength),
		requiredTime("createdAt", now),
	); err != nil {
		return nil, err
	}

	return &Order{
		flowID:             d.FlowID,
		userID:             d.UserID,
		locale:             d.Locale,
		contactName:        strings.TrimSpace(d.ContactName),
		phone:              d.Phone.String(),
		locality:           strings.TrimSpace(d.Locality),
		requestedItem:      strings.TrimSpace(d.RequestedItem),
		sizeDescriptor:     d.SizeDescriptor.String(),
		comment:            strings.TrimSpace(d.Comment),
		status:             New,
		createdAt:          now,
		lastStatusChangeAt: now,
		guard:              guard.NewConstructorGuard(),
	}, nil
}

// RestoreOrder rebuilds a persisted order. Only structural invariants are
// checked; free text is trusted as stored.
func RestoreOrder(s Snapshot) (*Order, error) {
	flowID, flowErr := kernel.UUIDFromString(s.FlowID)
	locale, localeErr := kernel.ParseLocale(s.Locale)

	var reminderErr error
	if s.LastReminderAt != nil && s.LastReminderAt.Before(s.CreatedAt) {
		reminderErr = errs.NewValueIsInvalidErrorWithCause("lastReminderAt", errors.New("earlier than createdAt"))
	}
	var idErr error
	if s.ID == 0 {
		idErr = errs.NewValueIsRequiredError("id")
	}

	if err := errors.Join(idErr, flowErr, localeErr, s.Status.Validate(), reminderErr,
		requiredTime("createdAt", s.CreatedAt)); err != nil {
		return nil, err
	}

	return &Order{
		id:                 s.ID,
		flowID:             flowID,
		userID:             s.UserID,
		locale:             locale,
		contactName:        s.ContactName,
		phone:              s.Phone,
		locality:           s.Locality,
		requestedItem:      s.RequestedItem,
		sizeDescriptor:     s.SizeDescriptor,
		comment:            s.Comment,
		status:             s.Status,
		createdAt:          s.CreatedAt,
		lastStatusChangeAt: s.LastStatusChangeAt,
		lastReminderAt:     s.LastReminderAt,
		guard:              guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the Order was created through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// AssignID records the identifier allocated by storage. It may be called once.
func (o *Order) AssignID(id uint64) error {
	if id == 0 {
		return errs.NewValueIsRequiredError("id")
	}
	if o.id != 0 && o.id != id {
		return ErrIDAlreadyAssigned
	}
	o.id = id
	return nil
}

func (o *Order) ID() uint64                    { return o.id }
func (o *Order) FlowID() kernel.UUID           { return o.flowID }
func (o *Order) UserID() string                { return o.userID }
func (o *Order) Locale() kernel.Locale         { return o.locale }
func (o *Order) ContactName() string           { return o.contactName }
func (o *Order) Phone() string                 { return o.phone }
func (o *Order) Locality() string              { return o.locality }
func (o *Order) RequestedItem() string         { return o.requestedItem }
func (o *Order) SizeDescriptor() string        { return o.sizeDescriptor }
func (o *Order) Comment() string               { return o.comment }
func (o *Order) Status() Status                { return o.status }
func (o *Order) CreatedAt() time.Time          { return o.createdAt }
func (o *Order) LastStatusChangeAt() time.Time { return o.lastStatusChangeAt }

// LastReminderAt returns nil until the first escalation reminder.
func (o *Order) LastReminderAt() *time.Time {
	if o.lastReminderAt == nil {
		return nil
	}
	t := *o.lastReminderAt
	return &t
}

// ChangeStatus moves the order along the status graph and returns the history
// entry to append.
//
// Returns:
//   - the StatusChange on success
//   - *InvalidTransitionError if the edge is not in the graph
func (o *Order) ChangeStatus(next Status, actor string, at time.Time) (StatusChange, error) {
	if strings.TrimSpace(actor) == "" {
		return StatusChange{}, errs.NewValueIsRequiredError("actor")
	}
	newStatus, err := o.status.TransitionTo(next)
	if err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{OrderID: o.id, From: o.status, To: newStatus, Actor: actor, At: at}
	o.status = newStatus
	o.lastStatusChangeAt = at
	return change, nil
}

// MarkReminded records that staff were reminded about the order at the given time.
func (o *Order) MarkReminded(at time.Time) error {
	if at.Before(o.createdAt) {
		return errs.NewValueIsInvalidErrorWithCause("lastReminderAt", errors.New("earlier than createdAt"))
	}
	o.lastReminderAt = &at
	return nil
}

// IsDueForEscalation reports whether the order is still new, at least
// firstAfter old, and either never reminded or last reminded at least
// repeatAfter ago.
func (o *Order) IsDueForEscalation(firstAfter, repeatAfter time.Duration, now time.Time) bool {
	if !o.status.AwaitsAcknowledgement() {
		return false
	}
	if now.Sub(o.createdAt) < firstAfter {
		return false
	}
	return o.lastReminderAt == nil || now.Sub(*o.lastReminderAt) >= repeatAfter
}

// Snapshot returns the flat representation of the order.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                 o.id,
		FlowID:             o.flowID.String(),
		UserID:             o.userID,
		Locale:             o.locale.String(),
		ContactName:        o.contactName,
		Phone:              o.phone,
		Locality:           o.locality,
		RequestedItem:      o.requestedItem,
		SizeDescriptor:     o.sizeDescriptor,
		Comment:            o.comment,
		Status:             o.status,
		CreatedAt:          o.createdAt,
		LastStatusChangeAt: o.lastStatusChangeAt,
		LastReminderAt:     o.LastReminderAt(),
	}
}

func validateFlowID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("flowID", err)
	}
	return nil
}

func requiredText(name, value string, maxLen int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return optionalText(name, v, maxLen)
}

func optionalText(name, value string, maxLen int) error {
	if n := utf8.RuneCountInString(value); n > maxLen {
		return errs.NewValueIsOutOfRangeError(name, n, 0, maxLen)
	}
	return nil
}

func requiredTime(name string, t time.Time) error {
	if t.IsZero() {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
