package constants

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLearner  Role = "learner"
	RoleAccessor Role = "accessor"
	RoleIQA      Role = "iqa"
	RoleEQA      Role = "eqa"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLearner, RoleAccessor, RoleIQA, RoleEQA:
		return true
	}
	return false
}

type Action string

const (
	ActionSubmit Action = "submit"
	ActionAssess Action = "assess"
	ActionReview Action = "review"
)

type Decision string

const (
	DecisionNone    Decision = ""
	DecisionPass    Decision = "pass"
	DecisionFail    Decision = "fail"
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Positive reports whether the decision moves the task forward.
func (d Decision) Positive() bool {
	return d == DecisionPass || d == DecisionApprove
}

// Stage is one of the three review checkpoints.
type Stage string

const (
	StageAccessor Stage = "accessor"
	StageIQA      Stage = "iqa"
	StageEQA      Stage = "eqa"
)

type EventType string

const (
	EventTaskSubmitted EventType = "task_submitted"
	EventTaskAssessed  EventType = "task_assessed"
	EventTaskReviewed  EventType = "task_reviewed"
)
