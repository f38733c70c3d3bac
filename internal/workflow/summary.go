package workflow

import (
	"time"

	"task-review-system.com/task-review-system/internal/constants"
	model "task-review-system.com/task-review-system/internal/models"
)

type Summary struct {
	Total            int                          `json:"total"`
	ByStatus         map[constants.TaskStatus]int `json:"by_status"`
	AwaitingAccessor int                          `json:"awaiting_accessor"`
	AwaitingIQA      int                          `json:"awaiting_iqa"`
	AwaitingEQA      int                          `json:"awaiting_eqa"`
	Approved         int                          `json:"approved"`
	Resubmissions    int                          `json:"resubmissions"`
}

// Summarize counts tasks per status. Every known status is present in
// ByStatus, zero or not.
func Summarize(tasks []model.Task) Summary {
	s := Summary{
		Total:    len(tasks),
		ByStatus: make(map[constants.TaskStatus]int),
	}
	for _, st := range constants.AllStatuses() {
		s.ByStatus[st] = 0
	}

	for i := range tasks {
		t := &tasks[i]
		s.ByStatus[t.Status]++
		s.Resubmissions += t.ResubmissionCount

		switch t.Status {
		case constants.StatusSubmitted:
			s.AwaitingAccessor++
		case constants.StatusAccessorPass:
			s.AwaitingIQA++
		case constants.StatusIQAPass:
			s.AwaitingEQA++
		}
		if t.Status.IsTerminal() {
			s.Approved++
		}
	}
	return s
}

type AuditFilter struct {
	Status constants.TaskStatus `json:"status,omitempty"`
	From   *time.Time           `json:"from,omitempty"`
	To     *time.Time           `json:"to,omitempty"`
}

type AuditRow struct {
	TaskID           string               `json:"task_id"`
	Title            string               `json:"title"`
	LearnerRef       string               `json:"learner_ref"`
	Status           constants.TaskStatus `json:"status"`
	StatusLabel      string               `json:"status_label"`
	SubmittedAt      *time.Time           `json:"submitted_at,omitempty"`
	AccessorFeedback string               `json:"accessor_feedback,omitempty"`
	IQAFeedback      string               `json:"iqa_feedback,omitempty"`
	EQAFeedback      string               `json:"eqa_feedback,omitempty"`
	Resubmissions    int                  `json:"resubmissions"`
	Compliant        bool                 `json:"compliant"`
}

type AuditReport struct {
	Filter    AuditFilter `json:"filter"`
	Total     int         `json:"total"`
	IQAPassed int         `json:"iqa_passed"`
	Approved  int         `json:"approved"`
	Rejected  int         `json:"rejected"`
	Rows      []AuditRow  `json:"rows"`
}

// BuildAuditReport covers the tasks an EQA reviewer is responsible for, plus
// archived completed ones.
func BuildAuditReport(tasks []model.Task, f AuditFilter) AuditReport {
	report := AuditReport{
		Filter: f,
		Rows:   make([]AuditRow, 0),
	}

	scope := withStatus(tasks,
		constants.StatusIQAPass,
		constants.StatusEQAPass,
		constants.StatusEQAFail,
		constants.StatusCompleted,
	)

	for i := range scope {
		t := &scope[i]
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.From != nil && t.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && t.CreatedAt.After(*f.To) {
			continue
		}

		row := AuditRow{
			TaskID:           t.ID,
			Title:            t.Title,
			LearnerRef:       t.LearnerRef,
			Status:           t.Status,
			StatusLabel:      t.Status.Label(),
			AccessorFeedback: t.Feedback.Accessor,
			IQAFeedback:      t.Feedback.IQA,
			EQAFeedback:      t.Feedback.EQA,
			Resubmissions:    t.ResubmissionCount,
			Compliant:        t.Status == constants.StatusIQAPass || t.Status.IsTerminal(),
		}
		if t.Submission != nil {
			submittedAt := t.Submission.SubmittedAt
			row.SubmittedAt = &submittedAt
		}

		report.Total++
		switch {
		case t.Status == constants.StatusIQAPass:
			report.IQAPassed++
		case t.Status.IsTerminal():
			report.Approved++
		case t.Status == constants.StatusEQAFail:
			report.Rejected++
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}
