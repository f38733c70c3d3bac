package model

import (
	"time"

	"task-review-system.com/task-review-system/internal/constants"
)

type User struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"size:255" json:"email,omitempty"`
	Role      constants.Role `gorm:"type:varchar(20);not null;index" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}
