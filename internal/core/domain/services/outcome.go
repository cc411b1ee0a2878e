package services

import (
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/model/session"
)

// PromptKey identifies a localized message template.
type PromptKey string

const (
	PromptWelcome          PromptKey = "welcome"
	PromptAskName          PromptKey = "ask_name"
	PromptAskPhone         PromptKey = "ask_phone"
	PromptAskLocality      PromptKey = "ask_locality"
	PromptAskItem          PromptKey = "ask_item"
	PromptAskSize          PromptKey = "ask_size"
	PromptAskComment       PromptKey = "ask_comment"
	PromptReview           PromptKey = "review"
	PromptThanks           PromptKey = "thanks"
	PromptSaveFailed       PromptKey = "save_failed"
	PromptCancelled        PromptKey = "cancelled"
	PromptLanguageChanged  PromptKey = "language_changed"
	PromptNothingToConfirm PromptKey = "nothing_to_confirm"
	PromptUseButtons       PromptKey = "use_buttons"
	PromptInvalidName      PromptKey = "invalid_name"
	PromptInvalidPhone     PromptKey = "invalid_phone"
	PromptInvalidSize      PromptKey = "invalid_size"
	PromptInvalidText      PromptKey = "invalid_text"
)

var askPrompts = map[session.Step]PromptKey{
	session.StepCollectName:     PromptAskName,
	session.StepCollectPhone:    PromptAskPhone,
	session.StepCollectLocality: PromptAskLocality,
	session.StepCollectItem:     PromptAskItem,
	session.StepCollectSize:     PromptAskSize,
	session.StepCollectComment:  PromptAskComment,
}

// Prompt is a message to send back to the user, before localization.
type Prompt struct {
	Key  PromptKey
	Args map[string]string
	// Fields is filled for the review summary.
	Fields session.CollectedFields
	// Buttons are command tokens offered as quick replies.
	Buttons []string
}

// Outcome is the effect of one event on a session.
type Outcome struct {
	From    session.Step
	To      session.Step
	Prompts []Prompt
	// Confirm is set when the user confirmed the review. The session stays in
	// review until the caller reports the result through ConfirmSucceeded or
	// ConfirmFailed.
	Confirm *order.Draft
}

func (o Outcome) Transitioned() bool {
	return o.From != o.To
}
