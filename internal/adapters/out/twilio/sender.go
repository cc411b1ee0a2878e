// Package twilio delivers outbound messages through the Twilio WhatsApp API.
package twilio

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"orderbot/internal/core/ports"

	twilioclient "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsappPrefix = "whatsapp:"

var ErrSenderNotConfigured = errors.New("twilio sender requires account sid, auth token and from number")

// messageCreator is the part of the Twilio REST API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type Config struct {
	AccountSID string
	AuthToken  string
	// From is the WhatsApp sender, with or without the "whatsapp:" prefix.
	From string
	// MediaBaseURL, if set, is the public URL under which attachment files
	// are published. Attachments are sent as media only when it is set.
	MediaBaseURL string
}

// Sender implements ports.MessageSender.
type Sender struct {
	api          messageCreator
	from         string
	mediaBaseURL string
	logger       *slog.Logger
}

func NewSender(cfg Config, logger *slog.Logger) (*Sender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrSenderNotConfigured
	}
	client := twilioclient.NewRestClientWithParams(twilioclient.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newSender(client.Api, cfg, logger), nil
}

func newSender(api messageCreator, cfg Config, logger *slog.Logger) *Sender {
	return &Sender{
		api:          api,
		from:         WhatsAppAddress(cfg.From),
		mediaBaseURL: strings.TrimRight(cfg.MediaBaseURL, "/"),
		logger:       logger.With("component", "twilio_sender"),
	}
}

func (s *Sender) Send(ctx context.Context, msg ports.OutboundMessage) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(WhatsAppAddress(msg.Recipient))
	params.SetBody(Compose(msg.Text, msg.Buttons))
	if msg.Attachment != "" && s.mediaBaseURL != "" {
		params.SetMediaUrl([]string{s.mediaBaseURL + "/" + filepath.Base(msg.Attachment)})
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp != nil && resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		reason := ""
		if resp.ErrorMessage != nil {
			reason = *resp.ErrorMessage
		}
		return &APIError{Code: *resp.ErrorCode, Message: reason}
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.DebugContext(ctx, "message sent", "to", msg.Recipient, "sid", sid)
	return nil
}

// APIError is an error reported in the body of an accepted Twilio response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return "twilio error " + strconv.Itoa(e.Code) + ": " + e.Message
}

// WhatsAppAddress adds the "whatsapp:" channel prefix when it is missing.
func WhatsAppAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, whatsappPrefix) {
		return addr
	}
	return whatsappPrefix + addr
}

// Compose appends quick-reply labels to the text, one per line, since plain
// WhatsApp messages cannot carry buttons.
func Compose(text string, buttons []string) string {
	if len(buttons) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for _, label := range buttons {
		b.WriteString("\n• ")
		b.WriteString(label)
	}
	return b.String()
}
