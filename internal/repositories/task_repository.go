package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	model "task-review-system.com/task-review-system/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

var ErrOptimisticLock = apperrors.ErrOptimisticLock

type CreateTaskParams struct {
	Title         string
	Description   string
	CourseRef     string
	LearnerRef    string
	AccessorRef   string
	ResourceFiles []string
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) CreateTask(ctx context.Context, p CreateTaskParams) (*model.Task, error) {
	files := p.ResourceFiles
	if files == nil {
		files = []string{}
	}

	task := &model.Task{
		ID:              uuid.NewString(),
		Title:           p.Title,
		Description:     p.Description,
		CourseRef:       p.CourseRef,
		LearnerRef:      p.LearnerRef,
		AccessorRef:     p.AccessorRef,
		Status:          constants.StatusAssigned,
		ResourceFiles:   files,
		FeedbackHistory: []model.FeedbackEntry{},
		Version:         1,
		CreatedAt:       time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&tasks).Error
	return tasks, err
}

// Save writes the task only if nobody else moved it since it was loaded: the
// stored version and status must still match. Events are written to the
// outbox in the same transaction.
func (r *TaskRepository) Save(
	ctx context.Context,
	task *model.Task,
	expectedStatus constants.TaskStatus,
	events []model.DomainEvent,
) error {
	expectedVersion := task.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task.Version = expectedVersion + 1

		res := tx.Model(task).
			Where("version = ? AND status = ?", expectedVersion, expectedStatus).
			Select("*").
			Omit("id", "created_at").
			Updates(task)

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		task.Version = expectedVersion
		return err
	}
	return nil
}

// Delete removes a task that has not entered review yet.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, constants.StatusAssigned).
		Delete(&model.Task{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return apperrors.ErrTaskInReview
}
