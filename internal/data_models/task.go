package dto

import (
	"task-review-system.com/task-review-system/internal/constants"
	model "task-review-system.com/task-review-system/internal/models"
)

type CreateTaskRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	CourseRef     string   `json:"course_ref"`
	LearnerRef    string   `json:"learner_ref"`
	AccessorRef   string   `json:"accessor_ref"`
	ResourceFiles []string `json:"resource_files"`
}

type SubmitTaskRequest struct {
	Content string   `json:"content"`
	Files   []string `json:"files"`
}

// DecisionRequest carries an assessment or review. Result is pass/fail for
// accessor and IQA, approve/reject for EQA.
type DecisionRequest struct {
	Result   constants.Decision `json:"result"`
	Feedback string             `json:"feedback"`
}

type TaskResponse struct {
	model.Task
	StatusLabel string `json:"status_label"`
}

type TaskListResponse struct {
	Count int            `json:"count"`
	Tasks []TaskResponse `json:"tasks"`
}

type EventListResponse struct {
	Count  int                 `json:"count"`
	Events []model.DomainEvent `json:"events"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func NewTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{Task: *t, StatusLabel: t.Status.Label()}
}

func NewTaskListResponse(tasks []model.Task) TaskListResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskResponse(&tasks[i]))
	}
	return TaskListResponse{Count: len(out), Tasks: out}
}
