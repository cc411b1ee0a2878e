package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/pkg/errs"
)

// SkippedComment is stored when the user skips the optional comment.
const SkippedComment = "-"

var ErrUnsupportedEvent = errors.New("unsupported event kind")

type textRule struct {
	min, max int
	letters  bool
}

var textRules = map[session.Field]textRule{
	session.FieldName:     {min: 2, max: 64, letters: true},
	session.FieldLocality: {min: 2, max: 100},
	session.FieldItem:     {min: 2, max: order.MaxTextLength},
	session.FieldComment:  {min: 1, max: order.MaxCommentLength},
}

// ConversationMachine drives the intake conversation.
//
// Handle mutates the given session in place and returns the resulting
// Outcome. Input validation failures are not errors: they keep the step,
// count a retry and re-ask. An error means the session or event itself is
// malformed.
//
// Example:
//
//	m := services.NewConversationMachine()
//	out, err := m.Handle(sess, services.TextEvent("Dilnoza"), now)
//	if out.Confirm != nil {
//	    // persist the order, then call ConfirmSucceeded or ConfirmFailed
//	}
type ConversationMachine struct {
	newFlowID func() kernel.UUID
}

func NewConversationMachine() ConversationMachine {
	return ConversationMachine{newFlowID: kernel.NewUUID}
}

// NewConversationMachineWithFlowIDs lets callers control flow id generation.
func NewConversationMachineWithFlowIDs(gen func() kernel.UUID) ConversationMachine {
	return ConversationMachine{newFlowID: gen}
}

func (m ConversationMachine) Handle(s *session.Session, e Event, now time.Time) (Outcome, error) {
	if err := s.Validate(); err != nil {
		return Outcome{}, err
	}
	from := s.Step()

	switch e.Kind {
	case EventCommand:
		return m.handleCommand(s, e, now)
	case EventText, EventContact:
	default:
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnsupportedEvent, e.Kind)
	}

	switch {
	case from == session.StepIdle:
		return Outcome{From: from, To: from, Prompts: []Prompt{welcomePrompt()}}, nil
	case from == session.StepReview:
		s.RecordRetry(now)
		return Outcome{From: from, To: from, Prompts: []Prompt{{Key: PromptUseButtons}, reviewPrompt(s)}}, nil
	case from.IsCollecting():
		return m.collect(s, e, now)
	default:
		return Outcome{}, errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("unexpected %s", from))
	}
}

// ConfirmSucceeded closes the flow after the order was stored.
func (m ConversationMachine) ConfirmSucceeded(s *session.Session, orderID uint64, now time.Time) Outcome {
	s.Reset(now)
	return Outcome{
		From: session.StepConfirmed,
		To:   session.StepIdle,
		Prompts: []Prompt{{
			Key:     PromptThanks,
			Args:    map[string]string{"order_id": strconv.FormatUint(orderID, 10)},
			Buttons: []string{string(CommandOrder)},
		}},
	}
}

// ConfirmFailed keeps the session in review so the user can confirm again.
func (m ConversationMachine) ConfirmFailed(s *session.Session, now time.Time) Outcome {
	s.RecordRetry(now)
	return Outcome{
		From:    session.StepReview,
		To:      session.StepReview,
		Prompts: []Prompt{{Key: PromptSaveFailed}, reviewPrompt(s)},
	}
}

// CurrentPrompt is what the user should see for the session's step.
func CurrentPrompt(s *session.Session) Prompt {
	switch step := s.Step(); {
	case step == session.StepReview:
		return reviewPrompt(s)
	case step.IsCollecting():
		return askPrompt(step)
	default:
		return welcomePrompt()
	}
}

func (m ConversationMachine) handleCommand(s *session.Session, e Event, now time.Time) (Outcome, error) {
	from := s.Step()
	out := Outcome{From: from, To: from}

	switch e.Command {
	case CommandCancel:
		s.Reset(now)
		out.To = session.StepCancelled
		out.Prompts = []Prompt{{Key: PromptCancelled, Buttons: []string{string(CommandOrder)}}}
		return out, nil

	case CommandLanguage:
		locale, err := kernel.ParseLocale(e.Arg)
		if err != nil {
			out.Prompts = []Prompt{CurrentPrompt(s)}
			return out, nil
		}
		if err := s.SetLocale(locale, now); err != nil {
			return Outcome{}, err
		}
		out.Prompts = []Prompt{{Key: PromptLanguageChanged}, CurrentPrompt(s)}
		return out, nil

	case CommandStart:
		out.Prompts = []Prompt{CurrentPrompt(s)}
		return out, nil
	}

	switch from {
	case session.StepIdle:
		switch e.Command {
		case CommandOrder:
			if err := s.StartFlow(m.newFlowID(), now); err != nil {
				return Outcome{}, err
			}
			out.To = s.Step()
			out.Prompts = []Prompt{askPrompt(s.Step())}
		case CommandConfirm:
			out.Prompts = []Prompt{{Key: PromptNothingToConfirm}, welcomePrompt()}
		default:
			out.Prompts = []Prompt{welcomePrompt()}
		}
		return out, nil

	case session.StepReview:
		switch e.Command {
		case CommandConfirm:
			draft, err := buildDraft(s)
			if err != nil {
				return Outcome{}, err
			}
			out.To = session.StepConfirmed
			out.Confirm = &draft
			return out, nil
		case CommandEdit:
			field, err := session.ParseField(e.Arg)
			if err != nil {
				s.RecordRetry(now)
				out.Prompts = []Prompt{{Key: PromptUseButtons}, reviewPrompt(s)}
				return out, nil
			}
			if err := s.Edit(field, now); err != nil {
				return Outcome{}, err
			}
			out.To = s.Step()
			out.Prompts = []Prompt{askPrompt(s.Step())}
			return out, nil
		default:
			out.Prompts = []Prompt{reviewPrompt(s)}
			return out, nil
		}
	}

	if from.IsCollecting() {
		if e.Command == CommandSkip && from == session.StepCollectComment {
			return m.advance(s, session.FieldComment, SkippedComment, now)
		}
		if e.Command == CommandOrder {
			out.Prompts = []Prompt{askPrompt(from)}
			return out, nil
		}
		return m.reject(s, PromptInvalidText, nil, now), nil
	}

	return Outcome{}, errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("unexpected %s", from))
}

func (m ConversationMachine) collect(s *session.Session, e Event, now time.Time) (Outcome, error) {
	step := s.Step()
	field, _ := step.Field()

	if e.Kind == EventContact {
		return m.collectContact(s, e.Contact, now)
	}

	text := strings.TrimSpace(e.Text)
	switch field {
	case session.FieldPhone:
		phone, err := kernel.NewPhoneNumber(text)
		if err != nil {
			return m.reject(s, PromptInvalidPhone, nil, now), nil
		}
		return m.advance(s, field, phone.String(), now)

	case session.FieldSize:
		if _, err := kernel.ParseSizeDescriptor(text); err != nil {
			return m.reject(s, PromptInvalidSize, sizeArgs(), now), nil
		}
		return m.advance(s, field, text, now)

	default:
		rule := textRules[field]
		if !rule.accepts(text) {
			key := PromptInvalidText
			if field == session.FieldName {
				key = PromptInvalidName
			}
			return m.reject(s, key, map[string]string{
				"min": strconv.Itoa(rule.min),
				"max": strconv.Itoa(rule.max),
			}, now), nil
		}
		return m.advance(s, field, text, now)
	}
}

// collectContact accepts a shared contact card. On the name step a card with
// a usable name fills both name and phone.
func (m ConversationMachine) collectContact(s *session.Session, c Contact, now time.Time) (Outcome, error) {
	step := s.Step()
	if step != session.StepCollectName && step != session.StepCollectPhone {
		return m.reject(s, PromptInvalidText, nil, now), nil
	}

	phone, err := kernel.NewPhoneNumber(c.Phone)
	if err != nil {
		return m.reject(s, PromptInvalidPhone, nil, now), nil
	}
	if step == session.StepCollectPhone {
		return m.advance(s, session.FieldPhone, phone.String(), now)
	}

	name := strings.TrimSpace(c.Name)
	if !textRules[session.FieldName].accepts(name) {
		// keep the phone, still ask for a name
		if err := s.Collect(session.FieldPhone, phone.String(), session.StepCollectName, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{From: step, To: step, Prompts: []Prompt{askPrompt(step)}}, nil
	}

	if err := s.Collect(session.FieldPhone, phone.String(), step, now); err != nil {
		return Outcome{}, err
	}
	return m.advance(s, session.FieldName, name, now)
}

// advance stores a valid value and moves to the next step that still lacks a
// value, or straight back to review when editing.
func (m ConversationMachine) advance(s *session.Session, f session.Field, value string, now time.Time) (Outcome, error) {
	from := s.Step()
	next := session.StepReview
	if !s.Editing() {
		next = nextMissing(s.Fields().Set(f, value), from)
	}
	if err := s.Collect(f, value, next, now); err != nil {
		return Outcome{}, err
	}
	return Outcome{From: from, To: next, Prompts: []Prompt{CurrentPrompt(s)}}, nil
}

func (m ConversationMachine) reject(s *session.Session, key PromptKey, args map[string]string, now time.Time) Outcome {
	s.RecordRetry(now)
	step := s.Step()
	return Outcome{From: step, To: step, Prompts: []Prompt{{Key: key, Args: args}, CurrentPrompt(s)}}
}

func nextMissing(fields session.CollectedFields, from session.Step) session.Step {
	next := from.Next()
	for next.IsCollecting() {
		f, _ := next.Field()
		if !fields.Has(f) {
			return next
		}
		next = next.Next()
	}
	return next
}

func buildDraft(s *session.Session) (order.Draft, error) {
	fields := s.Fields()
	get := func(f session.Field) string {
		v, _ := fields.Get(f)
		return v
	}

	flowID, ok := s.FlowID()
	if !ok {
		return order.Draft{}, errs.NewValueIsRequiredError("flowID")
	}
	phone, phoneErr := kernel.NewPhoneNumber(get(session.FieldPhone))
	size, sizeErr := kernel.ParseSizeDescriptor(get(session.FieldSize))
	if err := errors.Join(phoneErr, sizeErr); err != nil {
		return order.Draft{}, err
	}
	comment := get(session.FieldComment)
	if comment == SkippedComment {
		comment = ""
	}

	return order.Draft{
		FlowID:         flowID,
		UserID:         s.UserID(),
		Locale:         s.Locale(),
		ContactName:    get(session.FieldName),
		Phone:          phone,
		Locality:       get(session.FieldLocality),
		RequestedItem:  get(session.FieldItem),
		SizeDescriptor: size,
		Comment:        comment,
	}, nil
}

func (r textRule) accepts(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < r.min || n > r.max {
		return false
	}
	if !r.letters {
		return true
	}
	return strings.IndexFunc(text, unicode.IsLetter) >= 0
}

func welcomePrompt() Prompt {
	return Prompt{
		Key: PromptWelcome,
		Buttons: []string{
			string(CommandOrder),
			Token(CommandLanguage, kernel.LocaleRU.String()),
			Token(CommandLanguage, kernel.LocaleUZ.String()),
		},
	}
}

func askPrompt(step session.Step) Prompt {
	p := Prompt{Key: askPrompts[step], Buttons: []string{string(CommandCancel)}}
	switch step {
	case session.StepCollectComment:
		p.Buttons = []string{string(CommandSkip), string(CommandCancel)}
	case session.StepCollectSize:
		p.Args = sizeArgs()
	}
	return p
}

func reviewPrompt(s *session.Session) Prompt {
	buttons := []string{string(CommandConfirm)}
	for _, f := range session.Fields() {
		buttons = append(buttons, EditToken(f))
	}
	buttons = append(buttons, string(CommandCancel))
	return Prompt{Key: PromptReview, Fields: s.Fields(), Buttons: buttons}
}

func sizeArgs() map[string]string {
	return map[string]string{
		"min_age":    strconv.Itoa(kernel.MinAge),
		"max_age":    strconv.Itoa(kernel.MaxAge),
		"min_height": strconv.Itoa(kernel.MinHeight),
		"max_height": strconv.Itoa(kernel.MaxHeight),
	}
}
