package errors

import (
	"errors"
	"fmt"
)

type ShortenableError interface {
	error
	ShortError() string
}

func Error(msg string) error {
	return errors.New(msg)
}

func Errorf(msg string, args ...interface{}) error {
	return fmt.Errorf(msg, args...)
}

func WrapError(cause error, msg string) error {
	return WrapErrorf(cause, "%s", msg)
}

func WrapErrorf(cause error, msg string, args ...interface{}) error {
	var errMsg string
	if len(args) == 0 {
		errMsg = msg
	} else {
		errMsg = fmt.Sprintf(msg, args...)
	}

	if cause == nil {
		cause = errors.New("<nil cause>")
	}

	return ComplexError{Err: errors.New(errMsg), Cause: cause}
}

// ComplexError keeps the context message separate from its cause so that
// errors.Is and errors.As see through the wrapping.
type ComplexError struct {
	Err   error
	Cause error
}

func (e ComplexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Cause.Error())
}

func (e ComplexError) ShortError() string {
	buf := e.Err.Error()

	if typedCause, ok := e.Cause.(ShortenableError); ok {
		buf += ": " + typedCause.ShortError()
	}

	return buf
}

func (e ComplexError) Unwrap() error {
	return e.Cause
}
