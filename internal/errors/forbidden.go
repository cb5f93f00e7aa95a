package errors

import "net/http"

var ErrForbidden = &Exception{
	Kind:       KindForbidden,
	Message:    "not allowed to perform this operation",
	StatusCode: http.StatusForbidden,
}

var ErrUnauthorized = &Exception{
	Kind:       KindUnauthorized,
	Message:    "authentication required",
	StatusCode: http.StatusUnauthorized,
}
