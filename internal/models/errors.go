package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindPathEscape          ErrorKind = "path_escape"
	KindNotFound            ErrorKind = "not_found"
	KindDecode              ErrorKind = "decode_error"
	KindStatementNotAllowed ErrorKind = "statement_not_allowed"
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindConnectionFailure   ErrorKind = "connection_failure"
	KindExecutionFailure    ErrorKind = "execution_failure"
	KindIOFailure           ErrorKind = "io_failure"
	KindUpstreamFailure     ErrorKind = "upstream_failure"
)

// UserCorrectable reports whether the caller can fix the request and retry.
func (k ErrorKind) UserCorrectable() bool {
	switch k {
	case KindPathEscape, KindStatementNotAllowed, KindInvalidRequest, KindNotFound:
		return true
	}
	return false
}

// Error is the typed error returned by every guard and adapter.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrPathEscape          = &Error{Kind: KindPathEscape}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrDecode              = &Error{Kind: KindDecode}
	ErrStatementNotAllowed = &Error{Kind: KindStatementNotAllowed}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrConnectionFailure   = &Error{Kind: KindConnectionFailure}
	ErrExecutionFailure    = &Error{Kind: KindExecutionFailure}
	ErrIOFailure           = &Error{Kind: KindIOFailure}
	ErrUpstreamFailure     = &Error{Kind: KindUpstreamFailure}
)

// KindOf returns the kind of the first *Error in err's chain.
// Untyped errors are reported as execution failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindExecutionFailure
}
