package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer can pick a status code
type Kind string

// Kinds
const (
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindSignInRejected     Kind = "SignInRejected"
	KindUnauthorized       Kind = "Unauthorized"
	KindForbidden          Kind = "Forbidden"
	KindNotFound           Kind = "NotFound"
	KindTelemetryFailure   Kind = "TelemetryFailure"
	KindValidationFailure  Kind = "ValidationFailure"
	KindConflict           Kind = "Conflict"
	KindInternal           Kind = "Internal"
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks. Their empty messages match any error of the kind.
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrSignInRejected     = &Error{Kind: KindSignInRejected}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrTelemetryFailure   = &Error{Kind: KindTelemetryFailure}
	ErrValidationFailure  = &Error{Kind: KindValidationFailure}
	ErrConflict           = &Error{Kind: KindConflict}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid credentials")
}

func SignInRejected(message string) *Error {
	return New(KindSignInRejected, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func TelemetryFailure(message string, err error) *Error {
	return Wrap(KindTelemetryFailure, message, err)
}

func Validation(message string) *Error {
	return New(KindValidationFailure, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the kind of err, or KindInternal when err is unclassified
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to its response status
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidCredentials, KindSignInRejected, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTelemetryFailure:
		return http.StatusBadGateway
	case KindValidationFailure:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON error body
type Response struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind"`
}

// ToResponse renders err for clients. Internal details stay in the logs.
func ToResponse(err error) (int, Response) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, Response{Error: "internal server error", Kind: KindInternal}
	}
	msg := appErr.Message
	if appErr.Kind == KindInternal || msg == "" {
		msg = http.StatusText(HTTPStatus(appErr.Kind))
	}
	return HTTPStatus(appErr.Kind), Response{Error: msg, Kind: appErr.Kind}
}
