package errors

import "net/http"

var ErrInvalidTransition = &Exception{
	Kind:       "invalid_transition",
	Message:    "action not allowed",
	StatusCode: http.StatusConflict,
}
