package workflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-review-system.com/task-review-system/internal/constants"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	model "task-review-system.com/task-review-system/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newTestWorkflow(opts ...Option) *Workflow {
	clock := &stepClock{t: baseTime, step: time.Minute}
	seq := 0
	defaults := []Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("evt-%03d", seq)
		}),
	}
	return New(append(defaults, opts...)...)
}

func newTask(status constants.TaskStatus) *model.Task {
	task := &model.Task{
		ID:          "task-1",
		Title:       "Unit 3 essay",
		Description: "Write about safeguarding",
		CourseRef:   "course-1",
		LearnerRef:  "learner-1",
		AccessorRef: "accessor-1",
		Status:      status,
		Version:     1,
		CreatedAt:   baseTime,
	}
	if status != constants.StatusAssigned {
		task.Submission = &model.Submission{
			Content:     "existing work",
			Files:       []string{},
			SubmittedAt: baseTime.Add(time.Second),
		}
	}
	return task
}

var (
	learner  = Actor{Role: constants.RoleLearner, Ref: "learner-1"}
	accessor = Actor{Role: constants.RoleAccessor, Ref: "accessor-1"}
	iqa      = Actor{Role: constants.RoleIQA, Ref: "iqa-1"}
	eqa      = Actor{Role: constants.RoleEQA, Ref: "eqa-1"}
)

func TestApply_FullPipelineScenario(t *testing.T) {
	wf := newTestWorkflow()
	task := newTask(constants.StatusAssigned)

	res, err := wf.Apply(task, learner, constants.ActionSubmit, Payload{Content: "Essay v1"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSubmitted, task.Status)
	require.Len(t, res.Events, 1)
	assert.Equal(t, constants.EventTaskSubmitted, res.Events[0].Type)
	firstSubmittedAt := task.Submission.SubmittedAt

	_, err = wf.Apply(task, accessor, constants.ActionAssess, Payload{Decision: constants.DecisionFail, Feedback: "needs more detail"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusAccessorFail, task.Status)
	assert.Equal(t, "needs more detail", task.Feedback.Accessor)

	_, err = wf.Apply(task, learner, constants.ActionSubmit, Payload{Content: "Essay v2"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSubmitted, task.Status)
	assert.Equal(t, "Essay v2", task.Submission.Content)
	assert.True(t, task.Submission.SubmittedAt.After(firstSubmittedAt))
	assert.Equal(t, 1, task.ResubmissionCount)

	_, err = wf.Apply(task, accessor, constants.ActionAssess, Payload{Decision: constants.DecisionPass, Feedback: "well done"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusAccessorPass, task.Status)

	res, err = wf.Apply(task, iqa, constants.ActionReview, Payload{Decision: constants.DecisionPass, Feedback: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusIQAPass, task.Status)
	assert.Equal(t, "iqa-1", task.IQARef)
	assert.Equal(t, constants.EventTaskReviewed, res.Events[0].Type)

	res, err = wf.Apply(task, eqa, constants.ActionReview, Payload{Decision: constants.DecisionApprove, Feedback: "compliant"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusEQAPass, task.Status)
	assert.True(t, task.Status.IsTerminal())
	assert.Equal(t, "eqa-1", task.EQARef)
	assert.Equal(t, constants.StatusEQAPass, res.Events[0].ResultingStatus)

	require.Len(t, task.FeedbackHistory, 4)
	assert.Equal(t, "needs more detail", task.FeedbackHistory[0].Text)
	assert.Equal(t, 1, task.FeedbackHistory[0].Cycle)
	assert.Equal(t, 2, task.FeedbackHistory[1].Cycle)
	assert.Equal(t, constants.StageEQA, task.FeedbackHistory[3].Stage)

	_, err = wf.Apply(task, eqa, constants.ActionReview, Payload{Decision: constants.DecisionApprove, Feedback: "again"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestApply_AccessorFeedbackRoundTrip(t *testing.T) {
	wf := newTestWorkflow()
	task := newTask(constants.StatusSubmitted)

	res, err := wf.Apply(task, accessor, constants.ActionAssess, Payload{Decision: constants.DecisionPass, Feedback: "good work"})
	require.NoError(t, err)

	assert.Equal(t, "good work", task.Feedback.Accessor)
	require.NotNil(t, task.AssessedAt.Accessor)
	assert.False(t, task.AssessedAt.Accessor.Before(task.CreatedAt))
	assert.Nil(t, task.AssessedAt.IQA)
	assert.Empty(t, task.Feedback.IQA)

	event := res.Events[0]
	assert.Equal(t, "evt-001", event.ID)
	assert.Equal(t, constants.EventTaskAssessed, event.Type)
	assert.Equal(t, "task-1", event.TaskID)
	assert.Equal(t, constants.RoleAccessor, event.ActorRole)
	assert.Equal(t, "learner-1", event.LearnerRef)
	assert.Equal(t, *task.AssessedAt.Accessor, event.Timestamp)
}

func TestApply_StageTimestampNeverBeforeCreation(t *testing.T) {
	past := baseTime.Add(-24 * time.Hour)
	wf := New(WithClock(func() time.Time { return past }))
	task := newTask(constants.StatusSubmitted)
	task.Submission.SubmittedAt = baseTime

	_, err := wf.Apply(task, accessor, constants.ActionAssess, Payload{Decision: constants.DecisionPass, Feedback: "ok"})
	require.NoError(t, err)
	assert.Equal(t, baseTime, *task.AssessedAt.Accessor)
}

func TestApply_ResubmissionIsStrictlyLaterWithFrozenClock(t *testing.T) {
	frozen := baseTime.Add(time.Hour)
	wf := New(WithClock(func() time.Time { return frozen }))
	task := newTask(constants.StatusAccessorFail)
	task.Submission.SubmittedAt = frozen

	_, err := wf.Apply(task, learner, constants.ActionSubmit, Payload{Content: "v2", Files: []string{"s3://bucket/v2.pdf"}})
	require.NoError(t, err)
	assert.True(t, task.Submission.SubmittedAt.After(frozen))
	assert.Equal(t, []string{"s3://bucket/v2.pdf"}, task.Submission.Files)
}

func TestApply_ResubmissionKeepsPreviousAccessorFeedback(t *testing.T) {
	wf := newTestWorkflow()
	task := newTask(constants.StatusAccessorFail)
	task.Feedback.Accessor = "cite your sources"

	_, err := wf.Apply(task, learner, constants.ActionSubmit, Payload{Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "cite your sources", task.Feedback.Accessor)
}

func TestApply_IQAFailIsNotASubmitSource(t *testing.T) {
	wf := newTestWorkflow()
	task := newTask(constants.StatusIQAFail)

	_, err := wf.Apply(task, learner, constants.ActionSubmit, Payload{Content: "v2"})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, constants.StatusIQAFail, task.Status)
	assert.Equal(t, 0, task.ResubmissionCount)
	assert.Empty(t, AvailableTransitions(constants.StatusIQAFail, constants.RoleLearner))
}

func TestApply_RejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name     string
		status   constants.TaskStatus
		actor    Actor
		action   constants.Action
		decision constants.Decision
	}{
		{"accessor on assigned", constants.StatusAssigned, accessor, constants.ActionAssess, constants.DecisionPass},
		{"learner resubmits passed work", constants.StatusAccessorPass, learner, constants.ActionSubmit, constants.DecisionNone},
		{"iqa skips accessor", constants.StatusSubmitted, iqa, constants.ActionReview, constants.DecisionPass},
		{"eqa uses iqa vocabulary", constants.StatusIQAPass, eqa, constants.ActionReview, constants.DecisionPass},
		{"admin reviews", constants.StatusIQAPass, Actor{Role: constants.RoleAdmin, Ref: "admin-1"}, constants.ActionReview, constants.DecisionApprove},
		{"eqa_fail is parked", constants.StatusEQAFail, learner, constants.ActionSubmit, constants.DecisionNone},
		{"completed is terminal", constants.StatusCompleted, eqa, constants.ActionReview, constants.DecisionApprove},
		{"unknown status", constants.TaskStatus("accessor_review"), accessor, constants.ActionAssess, constants.DecisionPass},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wf := newTestWorkflow()
			task := newTask(tc.status)
			before := *task

			res, err := wf.Apply(task, tc.actor, tc.action, Payload{Decision: tc.decision, Feedback: "text", Content: "text"})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

			var trErr *TransitionError
			require.True(t, errors.As(err, &trErr))
			assert.Equal(t, tc.status, trErr.From)
			assert.Equal(t, tc.actor.Role, trErr.Role)
			assert.Equal(t, tc.action, trErr.Action)
			assert.Equal(t, before, *task)
		})
	}
}

func TestApply_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  constants.TaskStatus
		actor   Actor
		action  constants.Action
		payload Payload
		field   string
	}{
		{"empty accessor feedback", constants.StatusSubmitted, accessor, constants.ActionAssess, Payload{Decision: constants.DecisionFail, Feedback: ""}, "feedback"},
		{"blank iqa feedback", constants.StatusAccessorPass, iqa, constants.ActionReview, Payload{Decision: constants.DecisionPass, Feedback: "   "}, "feedback"},
		{"empty eqa feedback", constants.StatusIQAPass, eqa, constants.ActionReview, Payload{Decision: constants.DecisionReject}, "feedback"},
		{"empty content", constants.StatusAssigned, learner, constants.ActionSubmit, Payload{Content: ""}, "content"},
		{"blank file ref", constants.StatusAssigned, learner, constants.ActionSubmit, Payload{Content: "essay", Files: []string{"a.pdf", " "}}, "files"},
		{"missing actor ref", constants.StatusSubmitted, Actor{Role: constants.RoleAccessor}, constants.ActionAssess, Payload{Decision: constants.DecisionPass, Feedback: "ok"}, "actor"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wf := newTestWorkflow()
			task := newTask(tc.status)
			before := *task

			_, err := wf.Apply(task, tc.actor, tc.action, tc.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
			assert.Equal(t, before, *task)
		})
	}
}

func TestApply_EmptyFilesAreAllowed(t *testing.T) {
	wf := newTestWorkflow()
	task := newTask(constants.StatusAssigned)

	_, err := wf.Apply(task, learner, constants.ActionSubmit, Payload{Content: "essay"})
	require.NoError(t, err)
	assert.NotNil(t, task.Submission.Files)
	assert.Empty(t, task.Submission.Files)
}

func TestApply_DecisionWithoutSubmissionIsRejected(t *testing.T) {
	wf := newTestWorkflow()
	task := newTask(constants.StatusSubmitted)
	task.Submission = nil

	_, err := wf.Apply(task, accessor, constants.ActionAssess, Payload{Decision: constants.DecisionPass, Feedback: "ok"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, constants.StatusSubmitted, task.Status)
}

func TestApply_OwnershipChecks(t *testing.T) {
	t.Run("pooled by default", func(t *testing.T) {
		wf := newTestWorkflow()
		task := newTask(constants.StatusSubmitted)

		_, err := wf.Apply(task, Actor{Role: constants.RoleAccessor, Ref: "accessor-2"}, constants.ActionAssess,
			Payload{Decision: constants.DecisionPass, Feedback: "ok"})
		assert.NoError(t, err)
	})

	t.Run("other accessor refused", func(t *testing.T) {
		wf := newTestWorkflow(WithOwnershipChecks(true))
		task := newTask(constants.StatusSubmitted)

		_, err := wf.Apply(task, Actor{Role: constants.RoleAccessor, Ref: "accessor-2"}, constants.ActionAssess,
			Payload{Decision: constants.DecisionPass, Feedback: "ok"})
		require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "another accessor")
	})

	t.Run("other learner refused", func(t *testing.T) {
		wf := newTestWorkflow(WithOwnershipChecks(true))
		task := newTask(constants.StatusAssigned)

		_, err := wf.Apply(task, Actor{Role: constants.RoleLearner, Ref: "learner-9"}, constants.ActionSubmit, Payload{Content: "x"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})

	t.Run("unassigned iqa stage accepts anyone", func(t *testing.T) {
		wf := newTestWorkflow(WithOwnershipChecks(true))
		task := newTask(constants.StatusAccessorPass)

		_, err := wf.Apply(task, iqa, constants.ActionReview, Payload{Decision: constants.DecisionPass, Feedback: "ok"})
		require.NoError(t, err)
		assert.Equal(t, "iqa-1", task.IQARef)
	})

	t.Run("assigned eqa stage refuses others", func(t *testing.T) {
		wf := newTestWorkflow(WithOwnershipChecks(true))
		task := newTask(constants.StatusIQAPass)
		task.EQARef = "eqa-1"

		_, err := wf.Apply(task, Actor{Role: constants.RoleEQA, Ref: "eqa-2"}, constants.ActionReview,
			Payload{Decision: constants.DecisionApprove, Feedback: "ok"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{
		From:     constants.StatusAssigned,
		Role:     constants.RoleIQA,
		Action:   constants.ActionReview,
		Decision: constants.DecisionPass,
	}
	assert.Equal(t, "action not allowed: iqa cannot review (pass) a task in status assigned", err.Error())
}

func TestAvailableTransitions(t *testing.T) {
	got := AvailableTransitions(constants.StatusSubmitted, constants.RoleAccessor)
	require.Len(t, got, 2)
	assert.Equal(t, constants.StatusAccessorPass, got[0].To)
	assert.Equal(t, constants.StatusAccessorFail, got[1].To)

	assert.Empty(t, AvailableTransitions(constants.StatusEQAPass, constants.RoleEQA))
	assert.NotNil(t, AvailableTransitions(constants.StatusEQAPass, constants.RoleEQA))
}
