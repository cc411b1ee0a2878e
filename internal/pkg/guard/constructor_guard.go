// Package guard lets value objects and aggregates tell a constructed instance
// apart from a zero value.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is given.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded into domain types. Only NewConstructorGuard
// produces a guard that passes Validate, so a zero-value struct is detectable.
//
//	type PhoneNumber struct {
//	    value string
//	    guard guard.ConstructorGuard
//	}
//
//	func (p PhoneNumber) Validate() error {
//	    return p.guard.Validate(ErrPhoneNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard was not created by NewConstructorGuard.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
