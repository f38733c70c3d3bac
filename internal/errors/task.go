package errors

import "net/http"

var (
	ErrTaskNotFound = &Exception{
		Kind:       "task_not_found",
		Message:    "task not found",
		StatusCode: http.StatusNotFound,
	}
	ErrTaskIDRequired = &Exception{
		Kind:       "task_id_required",
		Message:    "task id is required",
		StatusCode: http.StatusBadRequest,
	}
	ErrTaskInReview = &Exception{
		Kind:       "task_in_review",
		Message:    "task cannot be deleted while under review",
		StatusCode: http.StatusConflict,
	}
)
