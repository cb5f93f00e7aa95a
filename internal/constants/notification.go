package constants

type NotificationType string

const (
	NotificationTaskAccepted      NotificationType = "task_accepted"
	NotificationTaskDelivered     NotificationType = "task_delivered"
	NotificationTaskApproved      NotificationType = "task_approved"
	NotificationTaskDisputed      NotificationType = "task_disputed"
	NotificationTaskCancelled     NotificationType = "task_cancelled"
	NotificationRevisionRequested NotificationType = "revision_requested"
	NotificationPaymentReceived   NotificationType = "payment_received"
)
