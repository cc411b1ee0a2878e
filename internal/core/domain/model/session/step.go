package session

import (
	"fmt"

	"orderbot/internal/pkg/errs"
)

// Step is a state of the intake conversation.
//
//	Idle ─order─> CollectName ─> CollectPhone ─> CollectLocality ─> CollectItem
//	                                                                     │
//	Idle <─confirmed── Review <─ CollectComment <─ CollectSize <─────────┘
//
// Cancel returns to Idle from anywhere. Confirmed and Cancelled are reported
// as transition targets only; a stored session is never left in them.
type Step int

const (
	StepUnknown Step = iota
	StepIdle
	StepCollectName
	StepCollectPhone
	StepCollectLocality
	StepCollectItem
	StepCollectSize
	StepCollectComment
	StepReview
	StepConfirmed
	StepCancelled
)

var stepNames = map[Step]string{
	StepUnknown:         "UNKNOWN",
	StepIdle:            "IDLE",
	StepCollectName:     "COLLECT_NAME",
	StepCollectPhone:    "COLLECT_PHONE",
	StepCollectLocality: "COLLECT_LOCALITY",
	StepCollectItem:     "COLLECT_ITEM",
	StepCollectSize:     "COLLECT_SIZE",
	StepCollectComment:  "COLLECT_COMMENT",
	StepReview:          "REVIEW",
	StepConfirmed:       "CONFIRMED",
	StepCancelled:       "CANCELLED",
}

var collectOrder = []Step{
	StepCollectName,
	StepCollectPhone,
	StepCollectLocality,
	StepCollectItem,
	StepCollectSize,
	StepCollectComment,
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return stepNames[StepUnknown]
}

// ParseStep accepts the names returned by String.
func ParseStep(name string) (Step, error) {
	for s, n := range stepNames {
		if n == name && s != StepUnknown {
			return s, nil
		}
	}
	return StepUnknown, errs.NewValueIsInvalidErrorWithCause("step", fmt.Errorf("%q is not a valid step", name))
}

// IsStorable reports whether a session may be persisted in this step.
func (s Step) IsStorable() bool {
	return s >= StepIdle && s <= StepReview
}

// IsCollecting reports whether the step waits for a field value.
func (s Step) IsCollecting() bool {
	return s >= StepCollectName && s <= StepCollectComment
}

// Next returns the step following a collection step. After the last field
// the flow proceeds to review.
func (s Step) Next() Step {
	for i, c := range collectOrder {
		if c == s {
			if i == len(collectOrder)-1 {
				return StepReview
			}
			return collectOrder[i+1]
		}
	}
	return s
}

// Field returns the field a collection step fills.
func (s Step) Field() (Field, bool) {
	for f, step := range fieldSteps {
		if step == s {
			return f, true
		}
	}
	return "", false
}
