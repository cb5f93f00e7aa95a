package errors

import "net/http"

var ErrTaskUnavailable = &Exception{
	Kind:       KindTaskUnavailable,
	Message:    "task is no longer available",
	StatusCode: http.StatusConflict,
}
