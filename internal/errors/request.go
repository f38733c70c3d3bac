package errors

import "net/http"

var (
	ErrInvalidJSON = &Exception{
		Kind:       "invalid_json",
		Message:    "invalid JSON payload",
		StatusCode: http.StatusBadRequest,
	}
	ErrInvalidLimit = &Exception{
		Kind:       "invalid_limit",
		Message:    "limit must be positive",
		StatusCode: http.StatusBadRequest,
	}
	ErrValidationFailed = &Exception{
		Kind:       "validation_failed",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
	}
)
