// Package workflow owns the task review pipeline: which role may move a task
// from one status to the next, what each move records, and which events it
// emits. It performs no I/O.
package workflow

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	model "task-review-system.com/task-review-system/internal/models"
)

type Actor struct {
	Role constants.Role
	Ref  string
}

type Payload struct {
	Decision constants.Decision
	Feedback string
	Content  string
	Files    []string
}

type Result struct {
	Task   *model.Task
	Events []model.DomainEvent
}

type Workflow struct {
	now       func() time.Time
	newID     func() string
	ownership bool
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(w *Workflow) {
		w.newID = gen
	}
}

// WithOwnershipChecks restricts each action to the actor referenced on the
// task instead of any user holding the stage's role.
func WithOwnershipChecks(enabled bool) Option {
	return func(w *Workflow) {
		w.ownership = enabled
	}
}

func New(opts ...Option) *Workflow {
	w := &Workflow{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Apply validates the action against the task's current status and, when it
// is legal, mutates the task in place. On error the task is left untouched.
func (w *Workflow) Apply(task *model.Task, actor Actor, action constants.Action, payload Payload) (*Result, error) {
	if task == nil {
		return nil, apperrors.ErrTaskNotFound
	}

	tr, ok := Lookup(task.Status, actor.Role, action, payload.Decision)
	if !ok {
		return nil, w.reject(task, actor, action, payload.Decision, "")
	}

	if w.ownership {
		if reason := ownershipViolation(task, actor); reason != "" {
			return nil, w.reject(task, actor, action, payload.Decision, reason)
		}
	}

	if action != constants.ActionSubmit && task.Submission == nil {
		return nil, w.reject(task, actor, action, payload.Decision, "task has no submission")
	}

	if err := validate(actor, action, payload); err != nil {
		return nil, err
	}

	var at time.Time
	if action == constants.ActionSubmit {
		at = w.applySubmission(task, tr, payload)
	} else {
		at = w.applyDecision(task, tr, actor, payload)
	}
	task.Status = tr.To

	return &Result{
		Task:   task,
		Events: []model.DomainEvent{w.newEvent(task, tr, actor, payload, at)},
	}, nil
}

func (w *Workflow) reject(task *model.Task, actor Actor, action constants.Action, decision constants.Decision, reason string) error {
	return &TransitionError{
		TaskID:   task.ID,
		From:     task.Status,
		Role:     actor.Role,
		Action:   action,
		Decision: decision,
		Reason:   reason,
	}
}

func validate(actor Actor, action constants.Action, payload Payload) error {
	if strings.TrimSpace(actor.Ref) == "" {
		return &ValidationError{Field: "actor", Message: "reference must not be empty"}
	}

	if action == constants.ActionSubmit {
		if strings.TrimSpace(payload.Content) == "" {
			return &ValidationError{Field: "content", Message: "must not be empty"}
		}
		for _, f := range payload.Files {
			if strings.TrimSpace(f) == "" {
				return &ValidationError{Field: "files", Message: "must not contain blank references"}
			}
		}
		return nil
	}

	if strings.TrimSpace(payload.Feedback) == "" {
		return &ValidationError{Field: "feedback", Message: "must not be empty"}
	}
	return nil
}

func ownershipViolation(task *model.Task, actor Actor) string {
	switch actor.Role {
	case constants.RoleLearner:
		if actor.Ref != task.LearnerRef {
			return "task belongs to another learner"
		}
	case constants.RoleAccessor:
		if actor.Ref != task.AccessorRef {
			return "task is assigned to another accessor"
		}
	case constants.RoleIQA:
		if task.IQARef != "" && actor.Ref != task.IQARef {
			return "task is assigned to another IQA reviewer"
		}
	case constants.RoleEQA:
		if task.EQARef != "" && actor.Ref != task.EQARef {
			return "task is assigned to another EQA reviewer"
		}
	}
	return ""
}

func (w *Workflow) applySubmission(task *model.Task, tr Transition, payload Payload) time.Time {
	submittedAt := notBefore(w.now(), task.CreatedAt)
	if prev := task.Submission; prev != nil && !submittedAt.After(prev.SubmittedAt) {
		submittedAt = prev.SubmittedAt.Add(time.Nanosecond)
	}

	if tr.From == constants.StatusAccessorFail {
		task.ResubmissionCount++
	}

	files := make([]string, len(payload.Files))
	copy(files, payload.Files)

	task.Submission = &model.Submission{
		Content:     payload.Content,
		Files:       files,
		SubmittedAt: submittedAt,
	}
	return submittedAt
}

func (w *Workflow) applyDecision(task *model.Task, tr Transition, actor Actor, payload Payload) time.Time {
	at := notBefore(w.now(), task.CreatedAt)
	if task.Submission != nil {
		at = notBefore(at, task.Submission.SubmittedAt)
	}

	stage, _ := tr.Stage()
	stamp := at
	switch stage {
	case constants.StageAccessor:
		task.Feedback.Accessor = payload.Feedback
		task.AssessedAt.Accessor = &stamp
	case constants.StageIQA:
		task.Feedback.IQA = payload.Feedback
		task.AssessedAt.IQA = &stamp
		if task.IQARef == "" {
			task.IQARef = actor.Ref
		}
	case constants.StageEQA:
		task.Feedback.EQA = payload.Feedback
		task.AssessedAt.EQA = &stamp
		if task.EQARef == "" {
			task.EQARef = actor.Ref
		}
	}

	task.FeedbackHistory = append(task.FeedbackHistory, model.FeedbackEntry{
		Stage:    stage,
		ActorRef: actor.Ref,
		Decision: tr.Decision,
		Text:     payload.Feedback,
		Cycle:    task.ResubmissionCount + 1,
		At:       at,
	})
	return at
}

func (w *Workflow) newEvent(task *model.Task, tr Transition, actor Actor, payload Payload, at time.Time) model.DomainEvent {
	return model.DomainEvent{
		ID:              w.newID(),
		Type:            eventTypeOf(tr.Action),
		TaskID:          task.ID,
		ActorRole:       actor.Role,
		ActorRef:        actor.Ref,
		ResultingStatus: tr.To,
		LearnerRef:      task.LearnerRef,
		AccessorRef:     task.AccessorRef,
		Feedback:        payload.Feedback,
		Timestamp:       at,
	}
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}
