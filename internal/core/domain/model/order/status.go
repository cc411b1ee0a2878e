package order

import (
	"fmt"
	"strings"

	"orderbot/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	New ──> Acknowledged ──> InProgress ──> Fulfilled
//	 │           │               │
//	 └───────────┴───────────────┴──> Cancelled
//
// Status is persisted as its integer value and exposed to staff tooling by name.
type Status int

const (
	// Unknown catches uninitialized Status values.
	Unknown Status = iota

	// New is the status of a freshly confirmed order nobody has looked at yet.
	New

	// Acknowledged means a staff member has seen the order.
	Acknowledged

	// InProgress means staff are working on the order.
	InProgress

	// Fulfilled is final: the customer got what they asked for.
	Fulfilled

	// Cancelled is final: the order will not be fulfilled.
	Cancelled
)

var statusNames = map[Status]string{
	Unknown:      "unknown",
	New:          "new",
	Acknowledged: "acknowledged",
	InProgress:   "in_progress",
	Fulfilled:    "fulfilled",
	Cancelled:    "cancelled",
}

var transitions = map[Status][]Status{
	New:          {Acknowledged, Cancelled},
	Acknowledged: {InProgress, Cancelled},
	InProgress:   {Fulfilled, Cancelled},
}

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{New, Acknowledged, InProgress, Fulfilled, Cancelled}
}

// ParseStatus accepts the names returned by String, case-insensitively.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for status, n := range statusNames {
		if status != Unknown && n == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks that s is one of the defined statuses.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the persisted and API name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[Unknown]
}

// IsFinal reports whether no further transitions are possible.
func (s Status) IsFinal() bool {
	return s == Fulfilled || s == Cancelled
}

// AwaitsAcknowledgement reports whether staff have not seen the order yet.
// Only such orders are escalated.
func (s Status) AwaitsAcknowledgement() bool {
	return s == New
}

// IsCustomerVisible reports whether entering s is worth telling the customer
// about. Every target status in the graph is.
func (s Status) IsCustomerVisible() bool {
	switch s {
	case Acknowledged, InProgress, Fulfilled, Cancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether s -> next is an edge of the status graph.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo returns next if s -> next is allowed and an
// *InvalidTransitionError otherwise.
//
// Example:
//
//	next, err := current.TransitionTo(order.Acknowledged)
//	if err != nil {
//	    // staff tried to skip a step or touch a final order
//	}
func (s Status) TransitionTo(next Status) (Status, error) {
	if err := next.Validate(); err != nil {
		return Unknown, err
	}
	if !s.CanTransitionTo(next) {
		return Unknown, NewInvalidTransitionError(s, next)
	}
	return next, nil
}

// InvalidTransitionError is returned for a status change outside the graph.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: transition %s -> %s is not allowed", errs.ErrValueIsInvalid, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return errs.ErrValueIsInvalid
}
