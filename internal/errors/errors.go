// Package errors defines the typed errors returned by the card engine and
// its collaborators. Compare with errors.Is against the sentinels below;
// matching is by code, so wrapped or annotated copies still match.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error whose message is built from a format string.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

var (
	ErrEmptyPool          = New(CodeEmptyPool, "loot pool is empty")
	ErrSelfPair           = New(CodeSelfPair, "participants must be distinct")
	ErrInvalidStat        = New(CodeInvalidStat, "stat out of range")
	ErrStorageConflict    = New(CodeStorageConflict, "storage conflict")
	ErrInvalidRarity      = New(CodeInvalidRarity, "invalid rarity")
	ErrInvalidRarityTable = New(CodeInvalidRarityRate, "invalid rarity table")
	ErrInvalidInput       = New(CodeInvalidInput, "invalid input")
	ErrForbidden          = New(CodeForbidden, "privileged actor required")
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrCardNotOwned       = New(CodeCardNotOwned, "card not owned")
)
