package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	config "task-review-system.com/task-review-system/internal/configs"
	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	model "task-review-system.com/task-review-system/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.NewDatabaseClient(dsn, nil)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func createTask(t *testing.T, repo *TaskRepository) *model.Task {
	t.Helper()
	task, err := repo.CreateTask(context.Background(), CreateTaskParams{
		Title:         "Unit 1",
		Description:   "Health and safety",
		CourseRef:     "course-1",
		LearnerRef:    "learner-1",
		AccessorRef:   "accessor-1",
		ResourceFiles: []string{"files/unit1.pdf"},
	})
	require.NoError(t, err)
	return task
}

func TestTaskRepository_CreateAndFind(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	task := createTask(t, repo)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, constants.StatusAssigned, task.Status)
	assert.Equal(t, uint(1), task.Version)

	found, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unit 1", found.Title)
	assert.Equal(t, []string{"files/unit1.pdf"}, found.ResourceFiles)
	assert.Nil(t, found.Submission)
	assert.Nil(t, found.AssessedAt.Accessor)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestTaskRepository_SavePersistsReviewState(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	events := NewEventRepository(repo.db)
	ctx := context.Background()
	task := createTask(t, repo)

	submittedAt := time.Now().UTC()
	assessedAt := submittedAt.Add(time.Minute)
	task.Status = constants.StatusAccessorFail
	task.Submission = &model.Submission{Content: "essay", Files: []string{"a.pdf"}, SubmittedAt: submittedAt}
	task.Feedback.Accessor = "needs references"
	task.AssessedAt.Accessor = &assessedAt
	task.FeedbackHistory = append(task.FeedbackHistory, model.FeedbackEntry{
		Stage: constants.StageAccessor, ActorRef: "accessor-1", Decision: constants.DecisionFail,
		Text: "needs references", Cycle: 1, At: assessedAt,
	})

	evt := model.DomainEvent{
		ID: "01HZX0000000000000000000AA", Type: constants.EventTaskAssessed, TaskID: task.ID,
		ActorRole: constants.RoleAccessor, ActorRef: "accessor-1", ResultingStatus: task.Status, Timestamp: assessedAt,
	}
	require.NoError(t, repo.Save(ctx, task, constants.StatusAssigned, []model.DomainEvent{evt}))
	assert.Equal(t, uint(2), task.Version)

	found, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusAccessorFail, found.Status)
	require.NotNil(t, found.Submission)
	assert.Equal(t, "essay", found.Submission.Content)
	assert.True(t, found.Submission.SubmittedAt.Equal(submittedAt))
	assert.Equal(t, "needs references", found.Feedback.Accessor)
	require.NotNil(t, found.AssessedAt.Accessor)
	assert.True(t, found.AssessedAt.Accessor.Equal(assessedAt))
	require.Len(t, found.FeedbackHistory, 1)
	assert.Equal(t, constants.DecisionFail, found.FeedbackHistory[0].Decision)
	assert.Equal(t, uint(2), found.Version)

	stored, err := events.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, evt.ID, stored[0].ID)
}

func TestTaskRepository_SaveRejectsStaleCopies(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	events := NewEventRepository(repo.db)
	ctx := context.Background()
	task := createTask(t, repo)

	first, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)

	first.Status = constants.StatusSubmitted
	require.NoError(t, repo.Save(ctx, first, constants.StatusAssigned, []model.DomainEvent{{
		ID: "01HZX0000000000000000000B1", Type: constants.EventTaskSubmitted, TaskID: task.ID,
		ActorRole: constants.RoleLearner, ResultingStatus: constants.StatusSubmitted, Timestamp: time.Now().UTC(),
	}}))

	second.Status = constants.StatusSubmitted
	err = repo.Save(ctx, second, constants.StatusAssigned, []model.DomainEvent{{
		ID: "01HZX0000000000000000000B2", Type: constants.EventTaskSubmitted, TaskID: task.ID,
		ActorRole: constants.RoleLearner, ResultingStatus: constants.StatusSubmitted, Timestamp: time.Now().UTC(),
	}})
	require.ErrorIs(t, err, ErrOptimisticLock)
	assert.Equal(t, uint(1), second.Version)

	stored, err := events.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "losing writer must not leave events behind")
	assert.Equal(t, "01HZX0000000000000000000B1", stored[0].ID)
}

func TestTaskRepository_SaveChecksExpectedStatus(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	task := createTask(t, repo)

	task.Status = constants.StatusSubmitted
	err := repo.Save(ctx, task, constants.StatusAccessorPass, nil)
	assert.ErrorIs(t, err, ErrOptimisticLock)
}

func TestTaskRepository_Delete(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	assigned := createTask(t, repo)
	require.NoError(t, repo.Delete(ctx, assigned.ID))
	_, err := repo.FindByID(ctx, assigned.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

	inReview := createTask(t, repo)
	inReview.Status = constants.StatusSubmitted
	require.NoError(t, repo.Save(ctx, inReview, constants.StatusAssigned, nil))
	assert.ErrorIs(t, repo.Delete(ctx, inReview.ID), apperrors.ErrTaskInReview)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), apperrors.ErrTaskNotFound)
}

func TestTaskRepository_ListNewestFirst(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	first := createTask(t, repo)
	time.Sleep(2 * time.Millisecond)
	second := createTask(t, repo)

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestEventRepository_Outbox(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := []model.DomainEvent{
		{ID: "01HZX0000000000000000000C1", Type: constants.EventTaskSubmitted, TaskID: "t1", ActorRole: constants.RoleLearner, ResultingStatus: constants.StatusSubmitted, Timestamp: now},
		{ID: "01HZX0000000000000000000C2", Type: constants.EventTaskAssessed, TaskID: "t1", ActorRole: constants.RoleAccessor, ResultingStatus: constants.StatusAccessorPass, Timestamp: now.Add(time.Second)},
	}
	require.NoError(t, db.Create(&rows).Error)

	pending, err := repo.ListUndispatched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, rows[0].ID, pending[0].ID)

	require.NoError(t, repo.RecordFailure(ctx, rows[0].ID, errors.New("redis down")))
	require.NoError(t, repo.MarkDispatched(ctx, rows[1].ID, now))

	pending, err = repo.ListUndispatched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "redis down", pending[0].LastError)

	_, err = repo.ListUndispatched(ctx, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLimit)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{ID: "iqa-1", Name: "Ida", Role: constants.RoleIQA}))
	assert.ErrorIs(t, repo.Create(ctx, &model.User{ID: "iqa-1", Name: "Dup", Role: constants.RoleIQA}), apperrors.ErrUserExists)

	role, err := repo.RoleOf(ctx, "iqa-1")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleIQA, role)

	_, err = repo.RoleOf(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
