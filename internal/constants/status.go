package constants

type TaskStatus string

const (
	StatusPendingAssignment TaskStatus = "pending_assignment"
	StatusAwaitingExpert    TaskStatus = "awaiting_expert"
	StatusWorking           TaskStatus = "working"
	StatusPendingReview     TaskStatus = "pending_review"
	StatusRevisionRequested TaskStatus = "revision_requested"
	StatusCompleted         TaskStatus = "completed"
	StatusDisputed          TaskStatus = "disputed"
	StatusCancelled         TaskStatus = "cancelled"
	StatusPaymentReceived   TaskStatus = "payment_received"
)

// IsAssigned reports whether a task in this status must carry an assigned expert.
func (s TaskStatus) IsAssigned() bool {
	switch s {
	case StatusWorking, StatusPendingReview, StatusCompleted, StatusDisputed,
		StatusRevisionRequested, StatusPaymentReceived:
		return true
	}
	return false
}

func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusPaymentReceived
}
