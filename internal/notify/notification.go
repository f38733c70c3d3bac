// Package notify turns workflow events into per-user notifications and hands
// them to a delivery sink.
package notify

import (
	"context"
	"fmt"
	"time"

	"task-review-system.com/task-review-system/internal/constants"
	model "task-review-system.com/task-review-system/internal/models"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	UserRef   string    `json:"user_ref"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Level     `json:"type"`
	TaskID    string    `json:"task_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink delivers one event. Deliver may be called more than once for the same
// event; consumers dedupe on the event's idempotency key.
type Sink interface {
	Deliver(ctx context.Context, event model.DomainEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event model.DomainEvent) error

func (f SinkFunc) Deliver(ctx context.Context, event model.DomainEvent) error {
	return f(ctx, event)
}

// Render returns the notifications an event produces, one per recipient.
// Recipients without a reference are skipped.
func Render(event model.DomainEvent) []Notification {
	var out []Notification
	add := func(userRef, title, message string, level Level) {
		if userRef == "" {
			return
		}
		out = append(out, Notification{
			UserRef:   userRef,
			Title:     title,
			Message:   message,
			Type:      level,
			TaskID:    event.TaskID,
			EventID:   event.ID,
			CreatedAt: event.Timestamp,
		})
	}

	status := event.ResultingStatus
	level := levelFor(status)

	switch event.Type {
	case constants.EventTaskSubmitted:
		add(event.AccessorRef, "New submission",
			fmt.Sprintf("Task %s was submitted and is awaiting assessment.", event.TaskID), LevelInfo)

	case constants.EventTaskAssessed:
		add(event.LearnerRef, "Task assessed", decisionMessage("Your accessor", status, event.Feedback), level)

	case constants.EventTaskReviewed:
		switch event.ActorRole {
		case constants.RoleIQA:
			add(event.LearnerRef, "IQA review", decisionMessage("Internal quality assurance", status, event.Feedback), level)
			add(event.AccessorRef, "IQA review", decisionMessage("Internal quality assurance", status, event.Feedback), level)
		case constants.RoleEQA:
			add(event.LearnerRef, "EQA review", decisionMessage("External quality assurance", status, event.Feedback), level)
		}
	}

	return out
}

func levelFor(status constants.TaskStatus) Level {
	switch status {
	case constants.StatusAccessorPass, constants.StatusIQAPass, constants.StatusEQAPass:
		return LevelSuccess
	case constants.StatusAccessorFail, constants.StatusIQAFail:
		return LevelWarning
	case constants.StatusEQAFail:
		return LevelError
	}
	return LevelInfo
}

func decisionMessage(who string, status constants.TaskStatus, feedback string) string {
	msg := fmt.Sprintf("%s marked the task as %q.", who, status.Label())
	if feedback != "" {
		msg += " Feedback: " + feedback
	}
	return msg
}
