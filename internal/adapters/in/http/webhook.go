package http

import (
	"errors"
	"net/http"
	"strings"

	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// SignatureValidator checks a webhook signature against the public URL and
// the posted form.
type SignatureValidator interface {
	Valid(url string, form map[string]string, signature string) bool
}

// TwilioWebhook receives inbound WhatsApp messages. Replies go out through
// the messaging transport, so the response is always empty TwiML.
type TwilioWebhook struct {
	inbound   InboundEventHandler
	validator SignatureValidator
	publicURL string
	server    *Server
}

// NewTwilioWebhook builds the webhook. A nil validator disables signature
// checks. publicURL is the externally visible base URL Twilio calls.
func NewTwilioWebhook(s *Server, validator SignatureValidator, publicURL string) *TwilioWebhook {
	return &TwilioWebhook{
		inbound:   s.h.Inbound,
		validator: validator,
		publicURL: strings.TrimRight(publicURL, "/"),
		server:    s,
	}
}

func (w *TwilioWebhook) Handle(ctx echo.Context) error {
	form, err := ctx.FormParams()
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "Invalid form")
	}
	params := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	if w.validator != nil {
		url := w.publicURL + ctx.Request().URL.RequestURI()
		if !w.validator.Valid(url, params, ctx.Request().Header.Get("X-Twilio-Signature")) {
			w.server.logger.WarnContext(ctx.Request().Context(), "rejected webhook with bad signature", "from", params["From"])
			return jsonError(ctx, http.StatusForbidden, "Invalid signature")
		}
	}

	cmd, err := commands.NewHandleInboundEventCommand(commands.InboundMessage{
		UserID:      params["From"],
		Text:        params["Body"],
		Payload:     params["ButtonPayload"],
		ContactName: params["ProfileName"],
	})
	if err != nil {
		// media-only messages and status callbacks carry nothing to handle
		return ctx.Blob(http.StatusOK, echo.MIMETextXMLCharsetUTF8, []byte(emptyTwiML))
	}

	if _, err := w.inbound.Handle(ctx.Request().Context(), cmd); err != nil {
		w.server.logger.ErrorContext(ctx.Request().Context(), "inbound message failed",
			"user_id", params["From"],
			"error", err,
		)
		if errors.Is(err, errs.ErrStorage) {
			return ctx.Blob(http.StatusInternalServerError, echo.MIMETextXMLCharsetUTF8, []byte(emptyTwiML))
		}
	}
	return ctx.Blob(http.StatusOK, echo.MIMETextXMLCharsetUTF8, []byte(emptyTwiML))
}
