package job

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies pipeline failures.
type Kind string

// Failure kinds. KindIO and KindParse together make up a fetch failure.
const (
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindUnsupported          Kind = "UNSUPPORTED"
	KindIO                   Kind = "IO"
	KindParse                Kind = "PARSE"
	KindRenderUnavailable    Kind = "RENDER_UNAVAILABLE"
	KindQueueTimeout         Kind = "QUEUE_TIMEOUT"
	KindExtractionIncomplete Kind = "EXTRACTION_INCOMPLETE"
	KindInternal             Kind = "INTERNAL"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrUnsupported          = &Error{Kind: KindUnsupported}
	ErrIO                   = &Error{Kind: KindIO}
	ErrParse                = &Error{Kind: KindParse}
	ErrRenderUnavailable    = &Error{Kind: KindRenderUnavailable}
	ErrQueueTimeout         = &Error{Kind: KindQueueTimeout}
	ErrExtractionIncomplete = &Error{Kind: KindExtractionIncomplete}
)

// Error is a typed pipeline failure with a captured stack.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	default:
		return string(e.Kind)
	}
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsFetchFailure reports whether the error is a network or document-construction failure.
func (e *Error) IsFetchFailure() bool {
	return e.Kind == KindIO || e.Kind == KindParse
}

// NewError builds a typed error and records the caller's stack.
func NewError(kind Kind, message string, err error) *Error {
	var stack []byte
	var ge *goerrors.Error
	if errors.As(err, &ge) {
		stack = ge.Stack()
	} else {
		stack = goerrors.Wrap(fmt.Errorf("%s: %s", kind, message), 1).Stack()
	}
	return &Error{Kind: kind, Message: message, Err: err, Stack: stack}
}

// Errorf builds a typed error with a formatted message and no cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsFetchFailure reports whether err is an IO or Parse failure.
func IsFetchFailure(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsFetchFailure()
}
