// Package errors carries the typed failures returned by services. Each value maps
// to one HTTP status and a stable machine-readable code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match on code, so clones with other messages still match their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrInvalidCredentials  = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount     = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden           = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrForbiddenTransition = New("FORBIDDEN_TRANSITION", http.StatusForbidden, "action not allowed for the current owner")
	ErrInvalidTransition   = New("INVALID_TRANSITION", http.StatusBadRequest, "action not allowed in the current state")
	ErrUnauthorized        = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict            = New("CONFLICT", http.StatusBadRequest, "resource already exists")
	ErrVersionConflict     = New("VERSION_CONFLICT", http.StatusConflict, "resource was modified concurrently, reload and retry")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnavailable         = New("UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss           = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.Is(err, target)
}

func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Validation wraps a payload failure. Field level problems reported by the validator
// are lifted into Fields keyed by the json field name, e.g. {"title": "required"}.
func Validation(err error, message string) *Error {
	out := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out.Fields = make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			out.Fields[jsonName(fe)] = rule
		}
	}
	return out
}

// jsonName strips the root struct from the namespace: "CreateComplaint.Title" -> "title".
func jsonName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		ns = fe.Field()
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

// FromError normalises any error into an *Error; unknown errors become internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel, optionally replacing its message.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
