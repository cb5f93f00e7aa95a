package constants

type Role string

const (
	RoleRequester Role = "requester"
	RoleExpert    Role = "expert"
)

type TaskAction string

const (
	ActionApprove         TaskAction = "approve"
	ActionDispute         TaskAction = "dispute"
	ActionCancel          TaskAction = "cancel"
	ActionRequestRevision TaskAction = "request_revision"
	ActionReleasePayment  TaskAction = "release_payment"
)

func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleExpert
}

func (a TaskAction) Valid() bool {
	switch a {
	case ActionApprove, ActionDispute, ActionCancel, ActionRequestRevision, ActionReleasePayment:
		return true
	}
	return false
}
