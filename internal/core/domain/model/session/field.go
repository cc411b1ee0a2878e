package session

import (
	"fmt"
	"slices"

	"orderbot/internal/pkg/errs"
)

// Field names one value collected during the flow.
type Field string

const (
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
	FieldLocality Field = "locality"
	FieldItem     Field = "item"
	FieldSize     Field = "size"
	FieldComment  Field = "comment"
)

var fieldSteps = map[Field]Step{
	FieldName:     StepCollectName,
	FieldPhone:    StepCollectPhone,
	FieldLocality: StepCollectLocality,
	FieldItem:     StepCollectItem,
	FieldSize:     StepCollectSize,
	FieldComment:  StepCollectComment,
}

// Fields lists every field in collection order.
func Fields() []Field {
	return []Field{FieldName, FieldPhone, FieldLocality, FieldItem, FieldSize, FieldComment}
}

func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldSteps[f]; !ok {
		return "", errs.NewValueIsInvalidErrorWithCause("field", fmt.Errorf("%q is not a collected field", s))
	}
	return f, nil
}

// Step returns the collection step that asks for the field.
func (f Field) Step() Step {
	return fieldSteps[f]
}

func (f Field) String() string {
	return string(f)
}

// FieldValue is one collected value.
type FieldValue struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// CollectedFields keeps values in the order they were first collected.
// Setting a field that is already present replaces its value in place.
type CollectedFields []FieldValue

func (c CollectedFields) Get(f Field) (string, bool) {
	for _, fv := range c {
		if fv.Field == f {
			return fv.Value, true
		}
	}
	return "", false
}

func (c CollectedFields) Set(f Field, value string) CollectedFields {
	out := slices.Clone(c)
	for i := range out {
		if out[i].Field == f {
			out[i].Value = value
			return out
		}
	}
	return append(out, FieldValue{Field: f, Value: value})
}

func (c CollectedFields) Has(f Field) bool {
	_, ok := c.Get(f)
	return ok
}
