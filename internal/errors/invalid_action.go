package errors

import "net/http"

var ErrInvalidAction = &Exception{
	Kind:       KindInvalidAction,
	Message:    "unknown task action",
	StatusCode: http.StatusBadRequest,
}

var ErrInvalidTransition = &Exception{
	Kind:       KindInvalidTransition,
	Message:    "action not allowed in the current task status",
	StatusCode: http.StatusConflict,
}
