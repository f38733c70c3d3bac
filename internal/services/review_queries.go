package services

import (
	"context"

	model "task-review-system.com/task-review-system/internal/models"
	"task-review-system.com/task-review-system/internal/workflow"
)

// Role views are computed over a full snapshot of the store.

func (s *ReviewService) LearnerTasks(ctx context.Context, learnerRef string) ([]model.Task, error) {
	return s.query(ctx, func(tasks []model.Task) []model.Task {
		return workflow.TasksForLearner(tasks, learnerRef)
	})
}

func (s *ReviewService) AccessorTasks(ctx context.Context, accessorRef string) ([]model.Task, error) {
	return s.query(ctx, func(tasks []model.Task) []model.Task {
		return workflow.TasksForAccessor(tasks, accessorRef)
	})
}

func (s *ReviewService) AccessorPending(ctx context.Context, accessorRef string) ([]model.Task, error) {
	return s.query(ctx, func(tasks []model.Task) []model.Task {
		return workflow.TasksAwaitingAccessorReview(tasks, accessorRef)
	})
}

func (s *ReviewService) IQATasks(ctx context.Context) ([]model.Task, error) {
	return s.query(ctx, workflow.TasksForIQA)
}

func (s *ReviewService) IQAPending(ctx context.Context) ([]model.Task, error) {
	return s.query(ctx, workflow.TasksAwaitingIQAReview)
}

func (s *ReviewService) EQATasks(ctx context.Context) ([]model.Task, error) {
	return s.query(ctx, workflow.TasksForEQA)
}

func (s *ReviewService) EQAPending(ctx context.Context) ([]model.Task, error) {
	return s.query(ctx, workflow.TasksAwaitingEQAReview)
}

func (s *ReviewService) Summary(ctx context.Context) (workflow.Summary, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return workflow.Summary{}, err
	}
	return workflow.Summarize(tasks), nil
}

func (s *ReviewService) AuditReport(ctx context.Context, filter workflow.AuditFilter) (workflow.AuditReport, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return workflow.AuditReport{}, err
	}
	return workflow.BuildAuditReport(tasks, filter), nil
}

func (s *ReviewService) query(ctx context.Context, view func([]model.Task) []model.Task) ([]model.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return view(tasks), nil
}
