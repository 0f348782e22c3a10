// Package apperr carries the error taxonomy shared by all request paths.
// Handlers map kinds to HTTP statuses; services attach stable machine codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindValidation covers rejected input: empty content, bad chunk params.
	KindValidation Kind = iota + 1
	// KindProvider covers embedding/generation failures. For ingest these
	// abort before any database mutation.
	KindProvider
	// KindStorage covers database failures.
	KindStorage
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Provider(code string, err error) *Error {
	return &Error{Kind: KindProvider, Code: code, Message: "Upstream provider error", Err: err}
}

func Storage(code string, err error) *Error {
	return &Error{Kind: KindStorage, Code: code, Message: "Internal Server Error", Err: err}
}

// From extracts an *Error from anywhere in the chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsValidation(err error) bool {
	if e, ok := From(err); ok {
		return e.Kind == KindValidation
	}
	return false
}

// HTTPStatus maps an error to the status the REST surface promises:
// 422 for validation, 502 for provider failures, 500 otherwise.
func HTTPStatus(err error) int {
	if e, ok := From(err); ok {
		switch e.Kind {
		case KindValidation:
			return http.StatusUnprocessableEntity
		case KindProvider:
			return http.StatusBadGateway
		case KindStorage:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	if e, ok := From(err); ok {
		return e.Code
	}
	return "INTERNAL_ERROR"
}

// ClientMessage returns a message safe to put on the wire. Validation
// messages describe the rejected input; everything else stays generic.
func ClientMessage(err error) string {
	if e, ok := From(err); ok && e.Message != "" {
		return e.Message
	}
	return "Internal Server Error"
}
