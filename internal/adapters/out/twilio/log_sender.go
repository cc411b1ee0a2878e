package twilio

import (
	"context"
	"log/slog"

	"orderbot/internal/core/ports"
)

// LogSender writes outbound messages to the log instead of delivering them.
// It stands in for Sender when no Twilio credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "log_sender")}
}

func (s *LogSender) Send(ctx context.Context, msg ports.OutboundMessage) error {
	s.logger.InfoContext(ctx, "outbound message",
		"to", msg.Recipient,
		"locale", msg.Locale.String(),
		"text", Compose(msg.Text, msg.Buttons),
		"attachment", msg.Attachment,
	)
	return nil
}
