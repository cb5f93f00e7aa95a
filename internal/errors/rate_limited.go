package errors

import "net/http"

var ErrRateLimited = &Exception{
	Kind:       KindRateLimited,
	Message:    "rate limit exceeded",
	StatusCode: http.StatusTooManyRequests,
}
