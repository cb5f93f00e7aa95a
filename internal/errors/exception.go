package errors

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindTaskUnavailable   Kind = "task_unavailable"
	KindForbidden         Kind = "forbidden"
	KindInvalidAction     Kind = "invalid_action"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindRateLimited       Kind = "rate_limited"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

type Exception struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Exception) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// Is matches any Exception of the same kind, so callers can compare against
// the package sentinels even when the message was customised.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Exception) WithMessage(message string) *Exception {
	return &Exception{
		Kind:       e.Kind,
		Message:    message,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

func (e *Exception) Wrap(err error) *Exception {
	return &Exception{
		Kind:       e.Kind,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func KindOf(err error) Kind {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
