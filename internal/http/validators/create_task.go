package validators

import (
	"strings"

	"task-review-system.com/task-review-system/internal/constants"
	dto "task-review-system.com/task-review-system/internal/data_models"
	"task-review-system.com/task-review-system/internal/workflow"
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	if strings.TrimSpace(r.Title) == "" {
		return &workflow.ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(r.LearnerRef) == "" {
		return &workflow.ValidationError{Field: "learner_ref", Message: "is required"}
	}
	if strings.TrimSpace(r.AccessorRef) == "" {
		return &workflow.ValidationError{Field: "accessor_ref", Message: "is required"}
	}
	return nil
}

// ValidateDecisionRequest only checks that a result was sent. Whether the
// result fits the task's stage is decided by the workflow.
func ValidateDecisionRequest(r *dto.DecisionRequest) error {
	switch r.Result {
	case constants.DecisionPass, constants.DecisionFail, constants.DecisionApprove, constants.DecisionReject:
		return nil
	case constants.DecisionNone:
		return &workflow.ValidationError{Field: "result", Message: "is required"}
	}
	return &workflow.ValidationError{Field: "result", Message: "must be one of pass, fail, approve, reject"}
}
