package course

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoGeneratedCourse is returned when a step needs generated content that does not exist yet.
var ErrNoGeneratedCourse = errors.New("no generated course")

// ValidationError names a required local input that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors collects every failing field of one validation pass.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, item := range e {
		parts = append(parts, item.Error())
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing field names in order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, item := range e {
		fields = append(fields, item.Field)
	}
	return fields
}

// Unwrap exposes each ValidationError to errors.As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, item := range e {
		errs = append(errs, item)
	}
	return errs
}

// ContentStateError reports an operation against content that is absent.
type ContentStateError struct {
	Op     string
	Reason string
}

func (e *ContentStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrNoGeneratedCourse) hold for the missing-course case.
func (e *ContentStateError) Is(target error) bool {
	return target == ErrNoGeneratedCourse && e.Reason == ErrNoGeneratedCourse.Error()
}

// MissingCourse builds the ContentStateError for an absent generated course.
func MissingCourse(op string) error {
	return &ContentStateError{Op: op, Reason: ErrNoGeneratedCourse.Error()}
}
