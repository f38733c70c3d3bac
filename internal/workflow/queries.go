package workflow

import (
	"task-review-system.com/task-review-system/internal/constants"
	model "task-review-system.com/task-review-system/internal/models"
)

// The queries below never fail: an empty input or no match yields an empty,
// non-nil slice.

func TasksForLearner(tasks []model.Task, learnerRef string) []model.Task {
	return filter(tasks, func(t *model.Task) bool {
		return t.LearnerRef == learnerRef
	})
}

func TasksForAccessor(tasks []model.Task, accessorRef string) []model.Task {
	return filter(tasks, func(t *model.Task) bool {
		return t.AccessorRef == accessorRef
	})
}

func TasksAwaitingAccessorReview(tasks []model.Task, accessorRef string) []model.Task {
	return filter(tasks, func(t *model.Task) bool {
		return t.AccessorRef == accessorRef && t.Status == constants.StatusSubmitted
	})
}

// TasksForIQA includes decided tasks so reviewers can see their history.
func TasksForIQA(tasks []model.Task) []model.Task {
	return withStatus(tasks, constants.StatusAccessorPass, constants.StatusIQAPass, constants.StatusIQAFail)
}

func TasksAwaitingIQAReview(tasks []model.Task) []model.Task {
	return withStatus(tasks, constants.StatusAccessorPass)
}

func TasksForEQA(tasks []model.Task) []model.Task {
	return withStatus(tasks, constants.StatusIQAPass, constants.StatusEQAPass, constants.StatusEQAFail)
}

func TasksAwaitingEQAReview(tasks []model.Task) []model.Task {
	return withStatus(tasks, constants.StatusIQAPass)
}

// VisibleTo reports whether the task appears in one of the actor's role
// views. Admins see every task.
func VisibleTo(task *model.Task, actor Actor) bool {
	one := []model.Task{*task}
	switch actor.Role {
	case constants.RoleAdmin:
		return true
	case constants.RoleLearner:
		return len(TasksForLearner(one, actor.Ref)) == 1
	case constants.RoleAccessor:
		return len(TasksForAccessor(one, actor.Ref)) == 1
	case constants.RoleIQA:
		return len(TasksForIQA(one)) == 1
	case constants.RoleEQA:
		return len(TasksForEQA(one)) == 1
	}
	return false
}

func withStatus(tasks []model.Task, statuses ...constants.TaskStatus) []model.Task {
	return filter(tasks, func(t *model.Task) bool {
		for _, s := range statuses {
			if t.Status == s {
				return true
			}
		}
		return false
	})
}

func filter(tasks []model.Task, keep func(*model.Task) bool) []model.Task {
	out := make([]model.Task, 0)
	for i := range tasks {
		if keep(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}
