package protocol

import (
	"errors"
	"fmt"
)

const (
	// Agent action layer.
	ErrNotReady      = "E_NOT_READY"
	ErrBlocked       = "E_BLOCKED"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrOutOfRange    = "E_OUT_OF_RANGE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrUnreadable    = "E_UNREADABLE"

	// Arena host.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrNotReady:      {},
	ErrBlocked:       {},
	ErrNoResource:    {},
	ErrOutOfRange:    {},
	ErrInvalidTarget: {},
	ErrUnreadable:    {},
	ErrBadRequest:    {},
	ErrInternal:      {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Error is returned by collaborator operations that the arena refuses.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Errorf builds a coded error. Unknown codes are reported as E_INTERNAL.
func Errorf(code, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if !IsKnownCode(code) {
		return &Error{Code: ErrInternal, Message: code + ": " + msg}
	}
	return &Error{Code: code, Message: msg}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
