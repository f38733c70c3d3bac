package workflow

import (
	"fmt"
	"strings"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
)

// TransitionError reports an action that is not legal for the task's current
// status and the acting role.
type TransitionError struct {
	TaskID   string
	From     constants.TaskStatus
	Role     constants.Role
	Action   constants.Action
	Decision constants.Decision
	Reason   string
}

func (e *TransitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s cannot %s", apperrors.ErrInvalidTransition.Message, e.Role, e.Action)
	if e.Decision != constants.DecisionNone {
		fmt.Fprintf(&b, " (%s)", e.Decision)
	}
	fmt.Fprintf(&b, " a task in status %s", e.From)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *TransitionError) Unwrap() error {
	return apperrors.ErrInvalidTransition
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return apperrors.ErrValidationFailed.Message + ": " + e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidationFailed
}
