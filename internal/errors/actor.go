package errors

import "net/http"

var (
	ErrActorRequired = &Exception{
		Kind:       "actor_required",
		Message:    "actor identity is required",
		StatusCode: http.StatusUnauthorized,
	}
	ErrUnknownActor = &Exception{
		Kind:       "actor_not_permitted",
		Message:    "actor not permitted",
		StatusCode: http.StatusForbidden,
	}
	ErrUserNotFound = &Exception{
		Kind:       "user_not_found",
		Message:    "user not found",
		StatusCode: http.StatusNotFound,
	}
	ErrUserExists = &Exception{
		Kind:       "user_exists",
		Message:    "user already exists",
		StatusCode: http.StatusConflict,
	}
)
