package ports

import (
	"context"

	"orderbot/internal/core/domain/model/kernel"
)

// MessageSender delivers a rendered text message through the chat transport.
// Buttons are optional quick-reply labels; transports that cannot show them
// append them to the text.
type MessageSender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

type OutboundMessage struct {
	Recipient string
	Locale    kernel.Locale
	Text      string
	Buttons   []string
	// Attachment is a local file path sent along with the text, if set.
	Attachment string
}
