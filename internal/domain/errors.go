package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies invocation failures. Every kind is fatal to the
// invocation; retry decisions belong to the scheduler.
type ErrorKind string

const (
	KindMissingInput       ErrorKind = "MissingInput"
	KindUnreadableFile     ErrorKind = "UnreadableFile"
	KindMissingChildOutput ErrorKind = "MissingChildOutput"
	KindMalformedRecord    ErrorKind = "MalformedRecord"
)

// Error is a classified invocation failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of Op, Path and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingInput       = &Error{Kind: KindMissingInput}
	ErrUnreadableFile     = &Error{Kind: KindUnreadableFile}
	ErrMissingChildOutput = &Error{Kind: KindMissingChildOutput}
	ErrMalformedRecord    = &Error{Kind: KindMalformedRecord}
)

// NewError builds a classified error.
func NewError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Malformed is a shorthand for MalformedRecord errors with a message.
func Malformed(op, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedRecord, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
