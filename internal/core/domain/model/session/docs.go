// Package session holds the per-user conversation state of the intake flow.
//
// A Session is keyed by the transport user id and records the current step,
// the locale, and the fields collected so far in collection order. A session
// in StepIdle never carries collected fields.
package session
