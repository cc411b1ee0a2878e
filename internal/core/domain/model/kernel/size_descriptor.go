package kernel

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

const (
	MinAge    = 1
	MaxAge    = 17
	MinHeight = 50
	MaxHeight = 190
)

var (
	ErrSizeDescriptorIsNotConstructed = errs.NewValueIsRequiredError("size descriptor must be created via ParseSizeDescriptor")

	numberPattern = regexp.MustCompile(`\d+`)
)

// SizeDescriptor is a child's age in years and height in centimetres.
type SizeDescriptor struct {
	age    int
	height int
	guard  guard.ConstructorGuard
}

// ParseSizeDescriptor extracts age and height from free text such as
// "7 yosh, 125 sm" or "рост 125, 7 лет". The two ranges do not overlap, so the
// numbers may come in any order and units are ignored.
func ParseSizeDescriptor(raw string) (SizeDescriptor, error) {
	matches := numberPattern.FindAllString(raw, -1)
	if len(matches) < 2 {
		return SizeDescriptor{}, errs.NewValueIsRequiredErrorWithCause("size", errors.New("both age and height are required"))
	}

	numbers := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			return SizeDescriptor{}, errs.NewValueIsInvalidErrorWithCause("size", err)
		}
		numbers = append(numbers, n)
	}

	heightIdx := -1
	for i, n := range numbers {
		if n >= MinHeight && n <= MaxHeight {
			heightIdx = i
			break
		}
	}
	if heightIdx < 0 {
		return SizeDescriptor{}, errs.NewValueIsOutOfRangeError("height", numbers[0], MinHeight, MaxHeight)
	}

	ageIdx := -1
	for i, n := range numbers {
		if i != heightIdx && n >= MinAge && n <= MaxAge {
			ageIdx = i
			break
		}
	}
	if ageIdx < 0 {
		other := numbers[0]
		if heightIdx == 0 {
			other = numbers[1]
		}
		return SizeDescriptor{}, errs.NewValueIsOutOfRangeError("age", other, MinAge, MaxAge)
	}

	return NewSizeDescriptor(numbers[ageIdx], numbers[heightIdx])
}

func NewSizeDescriptor(age, height int) (SizeDescriptor, error) {
	if age < MinAge || age > MaxAge {
		return SizeDescriptor{}, errs.NewValueIsOutOfRangeError("age", age, MinAge, MaxAge)
	}
	if height < MinHeight || height > MaxHeight {
		return SizeDescriptor{}, errs.NewValueIsOutOfRangeError("height", height, MinHeight, MaxHeight)
	}
	return SizeDescriptor{age: age, height: height, guard: guard.NewConstructorGuard()}, nil
}

func (s SizeDescriptor) Age() int {
	return s.age
}

func (s SizeDescriptor) Height() int {
	return s.height
}

// String is the canonical form stored on orders.
func (s SizeDescriptor) String() string {
	return fmt.Sprintf("age %d, height %d cm", s.age, s.height)
}

func (s SizeDescriptor) Validate() error {
	return s.guard.Validate(ErrSizeDescriptorIsNotConstructed)
}
