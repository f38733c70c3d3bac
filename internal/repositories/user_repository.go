package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	model "task-review-system.com/task-review-system/internal/models"
)

// UserRepository is the user directory the review service consults to
// resolve an actor's role.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrUserExists
	}

	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) RoleOf(ctx context.Context, userRef string) (constants.Role, error) {
	user, err := r.FindByID(ctx, userRef)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
