package kernel

import (
	"strings"

	"orderbot/internal/pkg/errs"
)

// Locale is the conversation language.
type Locale string

const (
	LocaleRU Locale = "ru"
	LocaleUZ Locale = "uz"
)

// DefaultLocale is used when nothing better is known about the user.
const DefaultLocale = LocaleRU

func ParseLocale(s string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l, nil
}

// DetectLocale picks a locale from a transport language hint such as "uz-Latn"
// or "ru-RU". Anything that is not Uzbek falls back to Russian.
func DetectLocale(languageCode string) Locale {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(languageCode)), "uz") {
		return LocaleUZ
	}
	return LocaleRU
}

func (l Locale) Validate() error {
	switch l {
	case LocaleRU, LocaleUZ:
		return nil
	case "":
		return errs.NewValueIsRequiredError("locale")
	default:
		return errs.NewValueIsInvalidError("locale")
	}
}

func (l Locale) String() string {
	return string(l)
}

// Locales lists every supported locale in display order.
func Locales() []Locale {
	return []Locale{LocaleRU, LocaleUZ}
}
