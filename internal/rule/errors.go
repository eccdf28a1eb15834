package rule

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rule failure.
type ErrorKind string

const (
	// KindInvalidRule covers malformed or out-of-range rule fields.
	KindInvalidRule ErrorKind = "invalid_rule"
	// KindTemporal covers dates that cannot produce a stable annual rule and
	// years outside the Easter table.
	KindTemporal ErrorKind = "temporal_precondition"
	// KindUnsupported covers valid rules an operation cannot handle.
	KindUnsupported ErrorKind = "unsupported"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrInvalidRule = errors.New("invalid rule")
	ErrTemporal    = errors.New("temporal precondition failed")
	ErrUnsupported = errors.New("unsupported rule")
)

// Error describes why a rule was rejected.
type Error struct {
	Kind    ErrorKind
	Field   string
	Value   any
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Value == nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s %v: %s", e.Kind, e.Field, e.Value, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidRule:
		return target == ErrInvalidRule
	case KindTemporal:
		return target == ErrTemporal
	case KindUnsupported:
		return target == ErrUnsupported
	}
	return false
}

// KindOf returns the kind of a rule error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func invalidRule(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRule, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func temporal(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: KindTemporal, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func unsupported(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: KindUnsupported, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}
