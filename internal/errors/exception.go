package errors

import (
	"errors"
	"net/http"
)

const internalMessage = "internal server error"

// Exception is an error a client may see. Kind is the stable code returned in
// error bodies; Message is the human text.
type Exception struct {
	Kind       string
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

func exceptionOf(err error) (*Exception, bool) {
	var exc *Exception
	ok := errors.As(err, &exc)
	return exc, ok
}

// StatusCode maps err onto an HTTP status. Anything that is not an Exception
// is a 500.
func StatusCode(err error) int {
	if exc, ok := exceptionOf(err); ok {
		return exc.StatusCode
	}
	return http.StatusInternalServerError
}

// KindOf returns the code of the outermost Exception wrapped by err, or
// "internal".
func KindOf(err error) string {
	if exc, ok := exceptionOf(err); ok && exc.Kind != "" {
		return exc.Kind
	}
	return "internal"
}

// PublicMessage returns the full wrapped text for exceptions, so the reason
// added by the caller survives. Other errors collapse to a generic message.
func PublicMessage(err error) string {
	if _, ok := exceptionOf(err); ok {
		return err.Error()
	}
	return internalMessage
}
