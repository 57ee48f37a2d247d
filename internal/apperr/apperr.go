// Package apperr defines the error kinds the gateway and reader raise, and
// the HTTP status each maps to. See spec §7 (Error Handling Design).
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies one of the error categories spec §7 enumerates.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInternalInconsistent
	KindDisconnected
	KindDeviceError
	KindTimeout
	KindFloodBackoff
)

var statusByKind = map[Kind]int{
	KindBadRequest:           http.StatusBadRequest,
	KindUnauthorized:         http.StatusUnauthorized,
	KindForbidden:            http.StatusForbidden,
	KindNotFound:             http.StatusNotFound,
	KindInternalInconsistent: http.StatusInternalServerError,
	KindDisconnected:         http.StatusInternalServerError,
	KindDeviceError:          http.StatusBadGateway,
	KindTimeout:              http.StatusGatewayTimeout,
	KindFloodBackoff:         http.StatusInternalServerError,
}

// Error wraps an underlying cause with a Kind so callers can branch on it
// with errors.As without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err under op with the given Kind. A nil err still produces a
// non-nil *Error carrying just the op description.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// HTTPStatus returns the status code for err's Kind, or 500 if err is not
// (or does not wrap) an *Error.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Is reports whether err is (or wraps) an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
