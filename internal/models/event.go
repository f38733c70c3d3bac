package model

import (
	"time"

	"task-review-system.com/task-review-system/internal/constants"
)

// DomainEvent is emitted on every successful transition. Rows double as the
// notification outbox: DispatchedAt stays nil until a sink accepted it.
type DomainEvent struct {
	ID              string               `gorm:"primaryKey;size:26" json:"id"`
	Type            constants.EventType  `gorm:"type:varchar(20);not null" json:"type"`
	TaskID          string               `gorm:"size:36;not null;index" json:"task_id"`
	ActorRole       constants.Role       `gorm:"type:varchar(20);not null" json:"actor_role"`
	ActorRef        string               `gorm:"size:64" json:"actor_ref"`
	ResultingStatus constants.TaskStatus `gorm:"type:varchar(20);not null" json:"resulting_status"`
	LearnerRef      string               `gorm:"size:64" json:"learner_ref"`
	AccessorRef     string               `gorm:"size:64" json:"accessor_ref"`
	Feedback        string               `json:"feedback,omitempty"`
	Timestamp       time.Time            `gorm:"column:occurred_at;not null;index" json:"timestamp"`
	DispatchedAt    *time.Time           `gorm:"index" json:"-"`
	Attempts        int                  `gorm:"not null;default:0" json:"-"`
	LastError       string               `json:"-"`
}

// IdempotencyKey identifies the event for at-least-once consumers.
func (e DomainEvent) IdempotencyKey() string {
	return e.TaskID + ":" + string(e.ResultingStatus)
}
