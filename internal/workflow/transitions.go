package workflow

import (
	"task-review-system.com/task-review-system/internal/constants"
)

// Transition is one row of the review pipeline.
type Transition struct {
	From     constants.TaskStatus `json:"from" yaml:"from"`
	Role     constants.Role       `json:"role" yaml:"role"`
	Action   constants.Action     `json:"action" yaml:"action"`
	Decision constants.Decision   `json:"decision,omitempty" yaml:"decision,omitempty"`
	To       constants.TaskStatus `json:"to" yaml:"to"`
}

// Stage returns the review checkpoint a decision belongs to. Submissions have
// no stage.
func (t Transition) Stage() (constants.Stage, bool) {
	if t.Action == constants.ActionSubmit {
		return "", false
	}
	return stageOf(t.Role)
}

var pipeline = []Transition{
	{From: constants.StatusAssigned, Role: constants.RoleLearner, Action: constants.ActionSubmit, To: constants.StatusSubmitted},
	{From: constants.StatusAccessorFail, Role: constants.RoleLearner, Action: constants.ActionSubmit, To: constants.StatusSubmitted},

	{From: constants.StatusSubmitted, Role: constants.RoleAccessor, Action: constants.ActionAssess, Decision: constants.DecisionPass, To: constants.StatusAccessorPass},
	{From: constants.StatusSubmitted, Role: constants.RoleAccessor, Action: constants.ActionAssess, Decision: constants.DecisionFail, To: constants.StatusAccessorFail},

	{From: constants.StatusAccessorPass, Role: constants.RoleIQA, Action: constants.ActionReview, Decision: constants.DecisionPass, To: constants.StatusIQAPass},
	{From: constants.StatusAccessorPass, Role: constants.RoleIQA, Action: constants.ActionReview, Decision: constants.DecisionFail, To: constants.StatusIQAFail},

	{From: constants.StatusIQAPass, Role: constants.RoleEQA, Action: constants.ActionReview, Decision: constants.DecisionApprove, To: constants.StatusEQAPass},
	{From: constants.StatusIQAPass, Role: constants.RoleEQA, Action: constants.ActionReview, Decision: constants.DecisionReject, To: constants.StatusEQAFail},
}

type transitionKey struct {
	from     constants.TaskStatus
	role     constants.Role
	action   constants.Action
	decision constants.Decision
}

var transitions = indexTransitions(pipeline)

func indexTransitions(rows []Transition) map[transitionKey]Transition {
	idx := make(map[transitionKey]Transition, len(rows))
	for _, tr := range rows {
		idx[transitionKey{tr.From, tr.Role, tr.Action, tr.Decision}] = tr
	}
	return idx
}

// Transitions returns the full transition table.
func Transitions() []Transition {
	out := make([]Transition, len(pipeline))
	copy(out, pipeline)
	return out
}

// Lookup finds the legal transition for the combination, if any.
func Lookup(from constants.TaskStatus, role constants.Role, action constants.Action, decision constants.Decision) (Transition, bool) {
	tr, ok := transitions[transitionKey{from, role, action, decision}]
	return tr, ok
}

// AvailableTransitions lists what a role may do with a task in the given
// status. Dashboards use it to decide which buttons to show.
func AvailableTransitions(from constants.TaskStatus, role constants.Role) []Transition {
	out := make([]Transition, 0)
	for _, tr := range pipeline {
		if tr.From == from && tr.Role == role {
			out = append(out, tr)
		}
	}
	return out
}

func stageOf(role constants.Role) (constants.Stage, bool) {
	switch role {
	case constants.RoleAccessor:
		return constants.StageAccessor, true
	case constants.RoleIQA:
		return constants.StageIQA, true
	case constants.RoleEQA:
		return constants.StageEQA, true
	}
	return "", false
}

func eventTypeOf(action constants.Action) constants.EventType {
	switch action {
	case constants.ActionSubmit:
		return constants.EventTaskSubmitted
	case constants.ActionAssess:
		return constants.EventTaskAssessed
	default:
		return constants.EventTaskReviewed
	}
}
