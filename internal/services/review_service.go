package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	"task-review-system.com/task-review-system/internal/metrics"
	model "task-review-system.com/task-review-system/internal/models"
	repository "task-review-system.com/task-review-system/internal/repositories"
	"task-review-system.com/task-review-system/internal/workflow"
)

// Dispatcher accepts committed event ids for asynchronous delivery.
type Dispatcher interface {
	Enqueue(eventID string) bool
}

type ReviewService struct {
	tasks      *repository.TaskRepository
	events     *repository.EventRepository
	users      *repository.UserRepository
	flow       *workflow.Workflow
	dispatcher Dispatcher
	metrics    *metrics.Recorder
	logger     *zap.Logger
}

type ReviewOption func(*ReviewService)

func WithDispatcher(d Dispatcher) ReviewOption {
	return func(s *ReviewService) {
		s.dispatcher = d
	}
}

func WithMetrics(r *metrics.Recorder) ReviewOption {
	return func(s *ReviewService) {
		s.metrics = r
	}
}

func WithLogger(l *zap.Logger) ReviewOption {
	return func(s *ReviewService) {
		s.logger = l
	}
}

// WithRoleVerification makes every action check the claimed role against the
// user directory.
func WithRoleVerification(users *repository.UserRepository) ReviewOption {
	return func(s *ReviewService) {
		s.users = users
	}
}

func NewReviewService(
	tasks *repository.TaskRepository,
	events *repository.EventRepository,
	flow *workflow.Workflow,
	opts ...ReviewOption,
) *ReviewService {
	s := &ReviewService{
		tasks:  tasks,
		events: events,
		flow:   flow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("review")
	return s
}

func (s *ReviewService) CreateTask(ctx context.Context, p repository.CreateTaskParams) (*model.Task, error) {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return nil, &workflow.ValidationError{Field: "title", Message: "must not be empty"}
	case strings.TrimSpace(p.LearnerRef) == "":
		return nil, &workflow.ValidationError{Field: "learner_ref", Message: "must not be empty"}
	case strings.TrimSpace(p.AccessorRef) == "":
		return nil, &workflow.ValidationError{Field: "accessor_ref", Message: "must not be empty"}
	}

	task, err := s.tasks.CreateTask(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task assigned",
		zap.String("task_id", task.ID),
		zap.String("learner_ref", task.LearnerRef),
		zap.String("accessor_ref", task.AccessorRef),
	)
	return task, nil
}

func (s *ReviewService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	if id == "" {
		return nil, apperrors.ErrTaskIDRequired
	}
	return s.tasks.FindByID(ctx, id)
}

// ViewTask loads a task on behalf of a caller. Tasks outside the caller's
// role views are reported as missing.
func (s *ReviewService) ViewTask(ctx context.Context, id string, actor workflow.Actor) (*model.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.VisibleTo(task, actor) {
		return nil, apperrors.ErrTaskNotFound
	}
	return task, nil
}

func (s *ReviewService) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *ReviewService) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ErrTaskIDRequired
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}

// History returns the events recorded for a task, oldest first.
func (s *ReviewService) History(ctx context.Context, id string) ([]model.DomainEvent, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.events.ListByTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.DomainEvent{}
	}
	return events, nil
}

func (s *ReviewService) Submit(ctx context.Context, taskID string, actor workflow.Actor, content string, files []string) (*model.Task, error) {
	return s.apply(ctx, taskID, actor, constants.ActionSubmit, constants.RoleLearner, workflow.Payload{
		Content: content,
		Files:   files,
	})
}

func (s *ReviewService) Assess(ctx context.Context, taskID string, actor workflow.Actor, decision constants.Decision, feedback string) (*model.Task, error) {
	return s.apply(ctx, taskID, actor, constants.ActionAssess, constants.RoleAccessor, workflow.Payload{
		Decision: decision,
		Feedback: feedback,
	})
}

func (s *ReviewService) ReviewIQA(ctx context.Context, taskID string, actor workflow.Actor, decision constants.Decision, feedback string) (*model.Task, error) {
	return s.review(ctx, taskID, actor, constants.RoleIQA, decision, feedback)
}

func (s *ReviewService) ReviewEQA(ctx context.Context, taskID string, actor workflow.Actor, decision constants.Decision, feedback string) (*model.Task, error) {
	return s.review(ctx, taskID, actor, constants.RoleEQA, decision, feedback)
}

func (s *ReviewService) review(
	ctx context.Context,
	taskID string,
	actor workflow.Actor,
	stage constants.Role,
	decision constants.Decision,
	feedback string,
) (*model.Task, error) {
	return s.apply(ctx, taskID, actor, constants.ActionReview, stage, workflow.Payload{
		Decision: decision,
		Feedback: feedback,
	})
}

func (s *ReviewService) apply(
	ctx context.Context,
	taskID string,
	actor workflow.Actor,
	action constants.Action,
	stage constants.Role,
	payload workflow.Payload,
) (*model.Task, error) {
	task, err := s.applyAndSave(ctx, taskID, actor, action, stage, payload)
	s.metrics.ObserveTransition(action, err)

	if err != nil {
		s.logger.Debug("action rejected",
			zap.String("task_id", taskID),
			zap.String("role", string(actor.Role)),
			zap.String("action", string(action)),
			zap.String("decision", string(payload.Decision)),
			zap.Error(err),
		)
		return nil, err
	}
	return task, nil
}

func (s *ReviewService) applyAndSave(
	ctx context.Context,
	taskID string,
	actor workflow.Actor,
	action constants.Action,
	stage constants.Role,
	payload workflow.Payload,
) (*model.Task, error) {
	if taskID == "" {
		return nil, apperrors.ErrTaskIDRequired
	}
	if err := s.verifyActor(ctx, actor); err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// IQA and EQA share the review action, so the endpoint's stage is
	// checked here rather than by the transition table.
	if actor.Role != stage {
		return nil, &workflow.TransitionError{
			TaskID:   task.ID,
			From:     task.Status,
			Role:     actor.Role,
			Action:   action,
			Decision: payload.Decision,
			Reason:   fmt.Sprintf("action is reserved for %s", stage),
		}
	}

	from := task.Status
	result, err := s.flow.Apply(task, actor, action, payload)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Save(ctx, result.Task, from, result.Events); err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailed, err)
		}
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}

	for _, evt := range result.Events {
		s.logger.Info("task transitioned",
			zap.String("task_id", evt.TaskID),
			zap.String("event_id", evt.ID),
			zap.String("from", string(from)),
			zap.String("to", string(evt.ResultingStatus)),
			zap.String("actor_role", string(evt.ActorRole)),
			zap.String("actor_ref", evt.ActorRef),
		)
		if s.dispatcher != nil && !s.dispatcher.Enqueue(evt.ID) {
			s.logger.Warn("dispatch queue full, event left for requeue", zap.String("event_id", evt.ID))
		}
	}

	return result.Task, nil
}

func (s *ReviewService) verifyActor(ctx context.Context, actor workflow.Actor) error {
	if !actor.Role.Valid() {
		return fmt.Errorf("%w: role %q", apperrors.ErrUnknownActor, actor.Role)
	}
	if s.users == nil || actor.Ref == "" {
		return nil
	}

	role, err := s.users.RoleOf(ctx, actor.Ref)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return fmt.Errorf("%w: %s is not in the user directory", apperrors.ErrUnknownActor, actor.Ref)
		}
		return err
	}
	if role != actor.Role {
		return fmt.Errorf("%w: %s does not hold role %s", apperrors.ErrUnknownActor, actor.Ref, actor.Role)
	}
	return nil
}
