package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	ValidationFailed     Kind = "validation_failed"
	CapacityExceeded     Kind = "capacity_exceeded"
	Conflict             Kind = "conflict"
	InvalidInput         Kind = "invalid_input"
	NotFound             Kind = "not_found"
	ReconciliationFailed Kind = "reconciliation_failed"
	UploadFailed         Kind = "upload_failed"
	Unauthorized         Kind = "unauthorized"
	Internal             Kind = "internal"
)

// Advisory reports whether errors of this kind leave local state authoritative
// and should be shown as an informational notice rather than an error.
func (k Kind) Advisory() bool {
	return k == ReconciliationFailed || k == UploadFailed
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error. A nil err yields nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, or Internal for errors this package did not produce.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ValidationFailed:
		return http.StatusUnprocessableEntity
	case InvalidInput:
		return http.StatusBadRequest
	case CapacityExceeded, Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case UploadFailed, ReconciliationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a message safe to show to an admin user.
func PublicMessage(err error) string {
	if ae, ok := As(err); ok {
		if ae.Msg != "" {
			return ae.Msg
		}
		return string(ae.Kind)
	}
	return "Unexpected error"
}
