// Package notifications turns conversation prompts and order events into
// localized messages and hands them to the chat transport.
package notifications

import (
	"strings"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/pkg/i18n"
)

// Renderer localizes prompts.
type Renderer struct {
	catalog *i18n.Catalog
}

func NewRenderer(catalog *i18n.Catalog) Renderer {
	return Renderer{catalog: catalog}
}

// Rendered is a localized prompt ready for the transport.
type Rendered struct {
	Text    string   `json:"text"`
	Buttons []string `json:"buttons,omitempty"`
}

func (r Renderer) Render(locale kernel.Locale, p services.Prompt) Rendered {
	l := locale.String()
	args := map[string]string{
		"order": r.catalog.Label(l, string(services.CommandOrder)),
		"skip":  r.catalog.Label(l, string(services.CommandSkip)),
	}
	for k, v := range p.Args {
		args[k] = v
	}

	text := r.catalog.Text(l, string(p.Key), args)
	if p.Key == services.PromptReview {
		text += "\n" + r.fieldLines(l, p.Fields)
	}

	buttons := make([]string, 0, len(p.Buttons))
	for _, token := range p.Buttons {
		buttons = append(buttons, r.catalog.Label(l, token))
	}
	return Rendered{Text: text, Buttons: buttons}
}

func (r Renderer) RenderAll(locale kernel.Locale, prompts []services.Prompt) []Rendered {
	out := make([]Rendered, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, r.Render(locale, p))
	}
	return out
}

// Text renders a plain catalog entry.
func (r Renderer) Text(locale kernel.Locale, key string, args map[string]string) string {
	return r.catalog.Text(locale.String(), key, args)
}

// Status returns the localized status name.
func (r Renderer) Status(locale kernel.Locale, s order.Status) string {
	return r.catalog.Status(locale.String(), s.String())
}

// OrderDetails lists the order fields one per line.
func (r Renderer) OrderDetails(locale kernel.Locale, o *order.Order) string {
	fields := session.CollectedFields{
		{Field: session.FieldName, Value: o.ContactName()},
		{Field: session.FieldPhone, Value: o.Phone()},
		{Field: session.FieldLocality, Value: o.Locality()},
		{Field: session.FieldItem, Value: o.RequestedItem()},
		{Field: session.FieldSize, Value: o.SizeDescriptor()},
	}
	if o.Comment() != "" {
		fields = fields.Set(session.FieldComment, o.Comment())
	}
	return r.fieldLines(locale.String(), fields)
}

func (r Renderer) fieldLines(locale string, fields session.CollectedFields) string {
	lines := make([]string, 0, len(fields))
	for _, fv := range fields {
		lines = append(lines, r.catalog.Field(locale, fv.Field.String())+": "+fv.Value)
	}
	return strings.Join(lines, "\n")
}
