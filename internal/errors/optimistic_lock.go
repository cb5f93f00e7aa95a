package errors

import "net/http"

// ErrConflict is returned once transaction retries are exhausted.
var ErrConflict = &Exception{
	Kind:       KindConflict,
	Message:    "task was modified concurrently, please retry",
	StatusCode: http.StatusConflict,
}
