package model

import (
	"time"

	"task-review-system.com/task-review-system/internal/constants"
)

type Task struct {
	ID                string               `gorm:"primaryKey;size:36" json:"id"`
	Title             string               `gorm:"not null" json:"title"`
	Description       string               `gorm:"not null" json:"description"`
	CourseRef         string               `gorm:"size:64;index" json:"course_ref"`
	LearnerRef        string               `gorm:"size:64;not null;index" json:"learner_ref"`
	AccessorRef       string               `gorm:"size:64;not null;index" json:"accessor_ref"`
	IQARef            string               `gorm:"column:iqa_ref;size:64" json:"iqa_ref,omitempty"`
	EQARef            string               `gorm:"column:eqa_ref;size:64" json:"eqa_ref,omitempty"`
	Status            constants.TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Submission        *Submission          `gorm:"serializer:json" json:"submission,omitempty"`
	ResourceFiles     []string             `gorm:"serializer:json" json:"resource_files"`
	Feedback          Feedback             `gorm:"embedded;embeddedPrefix:feedback_" json:"feedback"`
	AssessedAt        StageTimestamps      `gorm:"embedded;embeddedPrefix:assessed_at_" json:"assessed_at"`
	FeedbackHistory   []FeedbackEntry      `gorm:"serializer:json" json:"feedback_history"`
	ResubmissionCount int                  `gorm:"not null;default:0" json:"resubmission_count"`
	Version           uint                 `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type Submission struct {
	Content     string    `json:"content"`
	Files       []string  `json:"files"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Feedback holds the latest decision text per stage. Earlier cycles live in
// Task.FeedbackHistory.
type Feedback struct {
	Accessor string `gorm:"column:accessor" json:"accessor,omitempty"`
	IQA      string `gorm:"column:iqa" json:"iqa,omitempty"`
	EQA      string `gorm:"column:eqa" json:"eqa,omitempty"`
}

type StageTimestamps struct {
	Accessor *time.Time `gorm:"column:accessor" json:"accessor,omitempty"`
	IQA      *time.Time `gorm:"column:iqa" json:"iqa,omitempty"`
	EQA      *time.Time `gorm:"column:eqa" json:"eqa,omitempty"`
}

type FeedbackEntry struct {
	Stage    constants.Stage    `json:"stage"`
	ActorRef string             `json:"actor_ref"`
	Decision constants.Decision `json:"decision"`
	Text     string             `json:"text"`
	Cycle    int                `json:"cycle"`
	At       time.Time          `json:"at"`
}

// FeedbackFor returns the current feedback text of a stage.
func (t *Task) FeedbackFor(stage constants.Stage) string {
	switch stage {
	case constants.StageAccessor:
		return t.Feedback.Accessor
	case constants.StageIQA:
		return t.Feedback.IQA
	case constants.StageEQA:
		return t.Feedback.EQA
	}
	return ""
}

// AssessedAtFor returns when the stage last decided, or nil.
func (t *Task) AssessedAtFor(stage constants.Stage) *time.Time {
	switch stage {
	case constants.StageAccessor:
		return t.AssessedAt.Accessor
	case constants.StageIQA:
		return t.AssessedAt.IQA
	case constants.StageEQA:
		return t.AssessedAt.EQA
	}
	return nil
}
