// Package i18n holds the localized texts and button labels of the bot.
//
// Texts use {name} placeholders. Labels are keyed by locale-independent
// command tokens ("confirm", "edit:phone") so that a label typed or tapped in
// any locale maps back to the same token.
package i18n

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// FallbackLocale is used for locales missing from a table.
const FallbackLocale = "ru"

type table map[string]map[string]string

type document struct {
	Texts    table `yaml:"texts"`
	Labels   table `yaml:"labels"`
	Fields   table `yaml:"fields"`
	Statuses table `yaml:"statuses"`
}

// Catalog is immutable after Load and safe for concurrent use.
type Catalog struct {
	doc     document
	locales []string
	tokens  map[string]string
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Load(defaultMessages)
}

// Load parses a catalog and checks that every entry is translated into
// every locale the catalog mentions.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	if len(doc.Texts) == 0 {
		return nil, errors.New("message catalog has no texts")
	}

	seen := map[string]struct{}{}
	for _, t := range []table{doc.Texts, doc.Labels, doc.Fields, doc.Statuses} {
		for _, byLocale := range t {
			for l := range byLocale {
				seen[l] = struct{}{}
			}
		}
	}
	locales := make([]string, 0, len(seen))
	for l := range seen {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	var missing []error
	for name, t := range map[string]table{"texts": doc.Texts, "labels": doc.Labels, "fields": doc.Fields, "statuses": doc.Statuses} {
		for key, byLocale := range t {
			for _, l := range locales {
				if strings.TrimSpace(byLocale[l]) == "" {
					missing = append(missing, fmt.Errorf("%s.%s has no %q translation", name, key, l))
				}
			}
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	tokens := make(map[string]string)
	for token, byLocale := range doc.Labels {
		for _, label := range byLocale {
			tokens[normalize(label)] = token
		}
	}

	return &Catalog{doc: doc, locales: locales, tokens: tokens}, nil
}

// Locales returns the locales present in the catalog, sorted.
func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

// Text renders a text template. Unknown keys render as the key itself so a
// missing entry is visible rather than silent.
func (c *Catalog) Text(locale, key string, args map[string]string) string {
	tmpl := lookup(c.doc.Texts, locale, key)
	if tmpl == "" {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(args))
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Label returns the button label for a command token.
func (c *Catalog) Label(locale, token string) string {
	if l := lookup(c.doc.Labels, locale, token); l != "" {
		return l
	}
	return token
}

// Field returns the display name of a collected field.
func (c *Catalog) Field(locale, field string) string {
	if l := lookup(c.doc.Fields, locale, field); l != "" {
		return l
	}
	return field
}

// Status returns the display name of an order status.
func (c *Catalog) Status(locale, status string) string {
	if l := lookup(c.doc.Statuses, locale, status); l != "" {
		return l
	}
	return status
}

// Token maps a label in any locale back to its command token.
func (c *Catalog) Token(label string) (string, bool) {
	t, ok := c.tokens[normalize(label)]
	return t, ok
}

func lookup(t table, locale, key string) string {
	byLocale, ok := t[key]
	if !ok {
		return ""
	}
	if v, ok := byLocale[locale]; ok {
		return v
	}
	return byLocale[FallbackLocale]
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
