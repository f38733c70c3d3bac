package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "task-review-system.com/task-review-system/internal/errors"
	model "task-review-system.com/task-review-system/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*model.DomainEvent, error) {
	var event model.DomainEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) ListByTask(ctx context.Context, taskID string) ([]model.DomainEvent, error) {
	var events []model.DomainEvent
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("occurred_at asc, id asc").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) ListUndispatched(ctx context.Context, limit int) ([]model.DomainEvent, error) {
	if limit <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	var events []model.DomainEvent
	query := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("occurred_at asc, id asc").Limit(limit)

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepository) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.DomainEvent{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Updates(map[string]interface{}{
			"dispatched_at": at,
			"attempts":      gorm.Expr("attempts + 1"),
			"last_error":    "",
		}).Error
}

func (r *EventRepository) RecordFailure(ctx context.Context, id string, cause error) error {
	return r.db.WithContext(ctx).Model(&model.DomainEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error
}
