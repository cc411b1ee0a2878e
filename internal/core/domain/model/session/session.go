package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrSessionIsNotConstructed = errors.New("Session must be created via NewSession or RestoreSession")

// Session is the conversation state of one user.
//
// Invariants:
//   - the step is always storable (Idle through Review)
//   - an idle session has no collected fields and no flow id
//   - a session past Idle has a flow id
type Session struct {
	userID    string
	locale    kernel.Locale
	step      Step
	fields    CollectedFields
	flowID    *kernel.UUID
	editing   bool
	retries   int
	updatedAt time.Time
	guard     guard.ConstructorGuard
}

// Snapshot is the flat representation used by session stores.
type Snapshot struct {
	UserID    string          `json:"user_id"`
	Locale    string          `json:"locale"`
	Step      string          `json:"step"`
	Fields    CollectedFields `json:"fields"`
	FlowID    string          `json:"flow_id,omitempty"`
	Editing   bool            `json:"editing,omitempty"`
	Retries   int             `json:"retries,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSession returns an idle session for a user seen for the first time.
func NewSession(userID string, locale kernel.Locale, now time.Time) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errs.NewValueIsRequiredError("userID")
	}
	if err := locale.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		userID:    userID,
		locale:    locale,
		step:      StepIdle,
		updatedAt: now,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// RestoreSession rebuilds a stored session and rechecks its invariants.
func RestoreSession(s Snapshot) (*Session, error) {
	if strings.TrimSpace(s.UserID) == "" {
		return nil, errs.NewValueIsRequiredError("userID")
	}
	locale, err := kernel.ParseLocale(s.Locale)
	if err != nil {
		return nil, err
	}
	step, err := ParseStep(s.Step)
	if err != nil {
		return nil, err
	}
	if !step.IsStorable() {
		return nil, errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("%s is not storable", step))
	}

	restored := &Session{
		userID:    s.UserID,
		locale:    locale,
		step:      step,
		fields:    slices.Clone(s.Fields),
		editing:   s.Editing,
		retries:   s.Retries,
		updatedAt: s.UpdatedAt,
		guard:     guard.NewConstructorGuard(),
	}
	if s.FlowID != "" {
		id, err := kernel.UUIDFromString(s.FlowID)
		if err != nil {
			return nil, err
		}
		restored.flowID = &id
	}
	for _, fv := range restored.fields {
		if _, err := ParseField(string(fv.Field)); err != nil {
			return nil, err
		}
	}
	if step == StepIdle && (len(restored.fields) > 0 || restored.flowID != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("session", errors.New("idle session carries flow data"))
	}
	if step != StepIdle && restored.flowID == nil {
		return nil, errs.NewValueIsRequiredError("flowID")
	}
	return restored, nil
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrSessionIsNotConstructed
	}
	return s.guard.Validate(ErrSessionIsNotConstructed)
}

func (s *Session) UserID() string          { return s.userID }
func (s *Session) Locale() kernel.Locale   { return s.locale }
func (s *Session) Step() Step              { return s.step }
func (s *Session) Editing() bool           { return s.editing }
func (s *Session) Retries() int            { return s.retries }
func (s *Session) UpdatedAt() time.Time    { return s.updatedAt }
func (s *Session) Fields() CollectedFields { return slices.Clone(s.fields) }

// FlowID returns the identifier of the running flow, if any.
func (s *Session) FlowID() (kernel.UUID, bool) {
	if s.flowID == nil {
		return kernel.UUID{}, false
	}
	return *s.flowID, true
}

func (s *Session) SetLocale(l kernel.Locale, now time.Time) error {
	if err := l.Validate(); err != nil {
		return err
	}
	s.locale = l
	s.updatedAt = now
	return nil
}

// StartFlow leaves Idle and starts collecting under a fresh flow id.
func (s *Session) StartFlow(flowID kernel.UUID, now time.Time) error {
	if s.step != StepIdle {
		return errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("cannot start a flow from %s", s.step))
	}
	if err := flowID.Validate(); err != nil {
		return err
	}
	s.flowID = &flowID
	s.step = StepCollectName
	s.fields = nil
	s.retries = 0
	s.editing = false
	s.updatedAt = now
	return nil
}

// Collect stores a value for field and moves to the given step.
func (s *Session) Collect(f Field, value string, next Step, now time.Time) error {
	if s.step == StepIdle {
		return errs.NewValueIsInvalidErrorWithCause("step", errors.New("no flow in progress"))
	}
	if !next.IsStorable() || next == StepIdle {
		return errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("cannot move to %s", next))
	}
	s.fields = s.fields.Set(f, value)
	s.step = next
	s.retries = 0
	if next == StepReview {
		s.editing = false
	}
	s.updatedAt = now
	return nil
}

// Edit jumps from Review back to the step collecting f. Collected values are
// kept and the next valid input returns to Review.
func (s *Session) Edit(f Field, now time.Time) error {
	if s.step != StepReview {
		return errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("cannot edit from %s", s.step))
	}
	step := f.Step()
	if !step.IsCollecting() {
		return errs.NewValueIsInvalidError("field")
	}
	s.step = step
	s.editing = true
	s.retries = 0
	s.updatedAt = now
	return nil
}

// RecordRetry counts a rejected input on the current step.
func (s *Session) RecordRetry(now time.Time) {
	s.retries++
	s.updatedAt = now
}

// Reset returns to Idle and drops everything but the user and locale.
func (s *Session) Reset(now time.Time) {
	s.step = StepIdle
	s.fields = nil
	s.flowID = nil
	s.editing = false
	s.retries = 0
	s.updatedAt = now
}

// IsExpired reports whether a flow in progress has been inactive for longer than ttl.
// Idle sessions never expire; only their collected data would be lost.
func (s *Session) IsExpired(ttl time.Duration, now time.Time) bool {
	return s.step != StepIdle && ttl > 0 && now.Sub(s.updatedAt) > ttl
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		UserID:    s.userID,
		Locale:    s.locale.String(),
		Step:      s.step.String(),
		Fields:    slices.Clone(s.fields),
		Editing:   s.editing,
		Retries:   s.retries,
		UpdatedAt: s.updatedAt,
	}
	if s.flowID != nil {
		snap.FlowID = s.flowID.String()
	}
	return snap
}
