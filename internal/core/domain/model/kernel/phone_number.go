package kernel

import (
	"errors"
	"strings"

	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrPhoneNumberIsNotConstructed = errs.NewValueIsRequiredError("phone number must be created via NewPhoneNumber")

const (
	countryPrefix = "998"
	// first digit of the two-digit operator or area code
	operatorDigits = "12356789"
)

// PhoneNumber is an Uzbek phone number in +998XXXXXXXXX form.
type PhoneNumber struct {
	value string
	guard guard.ConstructorGuard
}

// NormalizePhone strips everything but digits and '+', then completes the
// country prefix for the short local forms people usually type.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	switch {
	case strings.HasPrefix(s, "+"):
		return s
	case strings.HasPrefix(s, countryPrefix):
		return "+" + s
	case len(s) == 9 && s[0] == '9':
		return "+" + countryPrefix + s
	case len(s) == 12 && s[0] == '9':
		return "+" + countryPrefix + s[3:]
	default:
		return s
	}
}

func NewPhoneNumber(raw string) (PhoneNumber, error) {
	if strings.TrimSpace(raw) == "" {
		return PhoneNumber{}, errs.NewValueIsRequiredError("phone")
	}
	normalized := NormalizePhone(raw)
	if !strings.HasPrefix(normalized, "+"+countryPrefix) {
		return PhoneNumber{}, errs.NewValueIsInvalidErrorWithCause("phone", errors.New("country code must be +998"))
	}
	digits := normalized[1:]
	if len(digits) != 12 || strings.ContainsRune(digits, '+') {
		return PhoneNumber{}, errs.NewValueIsInvalidErrorWithCause("phone", errors.New("expected 12 digits"))
	}
	if !strings.ContainsRune(operatorDigits, rune(digits[3])) {
		return PhoneNumber{}, errs.NewValueIsInvalidErrorWithCause("phone", errors.New("unknown operator code"))
	}
	return PhoneNumber{value: normalized, guard: guard.NewConstructorGuard()}, nil
}

func (p PhoneNumber) String() string {
	return p.value
}

func (p PhoneNumber) IsEqual(other PhoneNumber) bool {
	return p.value == other.value
}

func (p PhoneNumber) Validate() error {
	return p.guard.Validate(ErrPhoneNumberIsNotConstructed)
}
