package model

import (
	"time"

	"assignmint.com/assignmint/internal/constants"
)

type Notification struct {
	ID        string                     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string                     `gorm:"size:64;not null;index:idx_notifications_user_created" json:"userId"`
	Type      constants.NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title     string                     `gorm:"not null" json:"title"`
	Message   string                     `json:"message"`
	TaskID    string                     `gorm:"size:36;not null;index" json:"taskId"`
	ExpertID  *string                    `gorm:"size:64" json:"expertId,omitempty"`
	Read      bool                       `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time                  `gorm:"index:idx_notifications_user_created" json:"createdAt"`
}
