package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Authorization failures are reported as
// ErrNotFound so that callers cannot tell a hidden record from a missing one.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// Error pairs a kind with the message shown to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidRequestf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}
