package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error independently of the transport it is
// eventually rendered over.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindIllegalTransition  Kind = "illegal_transition"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindPathEscape         Kind = "path_escape"
	KindConflict           Kind = "conflict"
	KindSealed             Kind = "sealed"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindPortalTransport    Kind = "portal_transport"
	KindPortalRejected     Kind = "portal_rejected"
	KindPayloadTooLarge    Kind = "payload_too_large"
	KindMalformedBody      Kind = "malformed_body"
)

// Error is the one error type every layer above the standard library is
// expected to return. Handlers never inspect error strings; they type-assert
// down to *Error and render HTTPStatus().
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindIllegalTransition, KindConflict, KindSealed:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindPathEscape, KindMalformedBody:
		return http.StatusBadRequest
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindPortalTransport, KindPortalRejected:
		return http.StatusBadGateway
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err is a *Error of the given Kind, unwrapping as
// needed.
func IsKind(err error, kind Kind) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind == kind
	}
	return false
}
