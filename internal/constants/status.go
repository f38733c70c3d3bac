package constants

type TaskStatus string

const (
	StatusAssigned     TaskStatus = "assigned"
	StatusSubmitted    TaskStatus = "submitted"
	StatusAccessorPass TaskStatus = "accessor_pass"
	StatusAccessorFail TaskStatus = "accessor_fail"
	StatusIQAPass      TaskStatus = "iqa_pass"
	StatusIQAFail      TaskStatus = "iqa_fail"
	StatusEQAPass      TaskStatus = "eqa_pass"
	StatusEQAFail      TaskStatus = "eqa_fail"

	// StatusCompleted is kept for records archived before eqa_pass became the
	// terminal state. The workflow never produces it.
	StatusCompleted TaskStatus = "completed"
)

var allStatuses = []TaskStatus{
	StatusAssigned,
	StatusSubmitted,
	StatusAccessorPass,
	StatusAccessorFail,
	StatusIQAPass,
	StatusIQAFail,
	StatusEQAPass,
	StatusEQAFail,
	StatusCompleted,
}

var statusLabels = map[TaskStatus]string{
	StatusAssigned:     "Assigned",
	StatusSubmitted:    "Submitted",
	StatusAccessorPass: "Passed by Accessor",
	StatusAccessorFail: "Failed - Needs Resubmission",
	StatusIQAPass:      "Passed by IQA",
	StatusIQAFail:      "Failed by IQA",
	StatusEQAPass:      "EQA Approved",
	StatusEQAFail:      "Rejected by EQA",
	StatusCompleted:    "Completed",
}

// AllStatuses returns every status in pipeline order.
func AllStatuses() []TaskStatus {
	out := make([]TaskStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s TaskStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s TaskStatus) IsTerminal() bool {
	return s == StatusEQAPass || s == StatusCompleted
}

// Label is the human readable form shown on dashboards.
func (s TaskStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func ParseTaskStatus(v string) (TaskStatus, bool) {
	s := TaskStatus(v)
	return s, s.Valid()
}
