package twilio

import (
	"github.com/twilio/twilio-go/client"
)

// SignatureValidator checks the X-Twilio-Signature header of webhook calls.
type SignatureValidator struct {
	validator client.RequestValidator
}

func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: client.NewRequestValidator(authToken)}
}

// Valid reports whether signature matches the full public request URL and
// the posted form parameters.
func (v *SignatureValidator) Valid(url string, form map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	return v.validator.Validate(url, form, signature)
}
