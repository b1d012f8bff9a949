package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTimeOfDay is wrapped by every time parsing failure.
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	// ErrInvalidSchedule matches any *ValidationError through errors.Is.
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// UnknownDayError reports a day spelling outside the mapping table.
type UnknownDayError struct {
	Value string
}

func (e *UnknownDayError) Error() string {
	return fmt.Sprintf("unknown day of week %q", e.Value)
}

// ViolationKind discriminates validation failures.
type ViolationKind string

const (
	ViolationInverted ViolationKind = "inverted"
	ViolationOverlap  ViolationKind = "overlap"
)

// Violation describes one problem in a draft. OtherIndex is -1 unless Kind is overlap.
type Violation struct {
	Day        DayOfWeek     `json:"day"`
	Index      int           `json:"index"`
	OtherIndex int           `json:"otherIndex"`
	Kind       ViolationKind `json:"kind"`
	Message    string        `json:"message"`
}

// ValidationError carries every violation found in a draft.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrInvalidSchedule.Error()
	}
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return ErrInvalidSchedule.Error() + ": " + strings.Join(messages, "; ")
}

// Is lets errors.Is(err, ErrInvalidSchedule) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSchedule
}

// Messages returns one message per violation.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Message)
	}
	return out
}
