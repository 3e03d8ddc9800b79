// Package apperr defines the error kinds surfaced by checkout and reconciliation
// and how they map onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindConflict
	KindNotFound
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindGateway:
		return "gateway"
	default:
		return "internal"
	}
}

// Error is a classified application error. Message is safe to show to clients.
type Error struct {
	Kind      Kind
	Code      string // machine-readable detail, e.g. "already_paid", "out_of_stock"
	Message   string
	Field     string // offending field or product for validation errors
	Reference string // existing order reference for AlreadyPaid
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid", Field: field, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// AlreadyPaid reports that the checkout key maps to an order that is already PAID.
func AlreadyPaid(reference string) *Error {
	return &Error{Kind: KindConflict, Code: "already_paid", Message: "Order already paid", Reference: reference}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: msg}
}

func Gateway(msg string, err error) *Error {
	return &Error{Kind: KindGateway, Code: "gateway_error", Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Abort writes err as a JSON error body and stops the handler chain.
// Unclassified errors never leak their text to the client.
func Abort(c *gin.Context, err error) {
	body := gin.H{"error": "Internal server error"}
	var e *Error
	if errors.As(err, &e) {
		body["error"] = e.Message
		if e.Field != "" {
			body["field"] = e.Field
		}
		if e.Reference != "" {
			body["reference"] = e.Reference
		}
	}
	c.AbortWithStatusJSON(HTTPStatus(err), body)
}
