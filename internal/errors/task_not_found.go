package errors

import "net/http"

var ErrTaskNotFound = &Exception{
	Kind:       KindNotFound,
	Message:    "task not found",
	StatusCode: http.StatusNotFound,
}

var ErrNotificationNotFound = &Exception{
	Kind:       KindNotFound,
	Message:    "notification not found",
	StatusCode: http.StatusNotFound,
}
