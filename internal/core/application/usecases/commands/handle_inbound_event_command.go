package commands

import (
	"errors"
	"strings"

	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrHandleInboundEventCommandIsNotConstructed = errors.New(
	"HandleInboundEventCommand must be created via NewHandleInboundEventCommand constructor",
)

// InboundMessage is the transport-neutral content of one inbound message.
type InboundMessage struct {
	UserID string
	// Text is the typed text, if any.
	Text string
	// Payload is the token attached to a tapped button, if any.
	Payload string
	// ContactName and ContactPhone are set when a contact card was shared.
	ContactName  string
	ContactPhone string
	// LanguageCode is the transport's language hint for first contact.
	LanguageCode string
}

// HandleInboundEventCommand carries one message from a customer or staff
// member into the conversation engine.
//
// Example:
//
//	cmd, err := NewHandleInboundEventCommand(InboundMessage{
//	    UserID: "whatsapp:+998901234567",
//	    Text:   "7 yosh, 125 sm",
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type HandleInboundEventCommand struct {
	msg   InboundMessage
	guard guard.ConstructorGuard
}

func NewHandleInboundEventCommand(msg InboundMessage) (HandleInboundEventCommand, error) {
	msg.UserID = strings.TrimSpace(msg.UserID)
	if msg.UserID == "" {
		return HandleInboundEventCommand{}, errs.NewValueIsRequiredError("userID")
	}
	if strings.TrimSpace(msg.Text) == "" && strings.TrimSpace(msg.Payload) == "" && msg.ContactPhone == "" {
		return HandleInboundEventCommand{}, errs.NewValueIsRequiredError("message")
	}
	return HandleInboundEventCommand{msg: msg, guard: guard.NewConstructorGuard()}, nil
}

func (c HandleInboundEventCommand) Validate() error {
	return c.guard.Validate(ErrHandleInboundEventCommandIsNotConstructed)
}

func (c HandleInboundEventCommand) Message() InboundMessage {
	return c.msg
}

func (c HandleInboundEventCommand) UserID() string {
	return c.msg.UserID
}
