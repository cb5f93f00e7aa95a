package model

import (
	"time"

	"gorm.io/datatypes"

	"assignmint.com/assignmint/internal/constants"
)

type Task struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"not null" json:"description"`
	Subject     string                      `gorm:"size:64;not null;index" json:"subject"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Urgency     constants.Urgency           `gorm:"type:varchar(10);not null;index" json:"urgency"`
	Budget      float64                     `gorm:"not null" json:"budget"`
	Deadline    time.Time                   `gorm:"not null" json:"deadline"`

	MatchingType       constants.MatchingType `gorm:"type:varchar(10);not null;index" json:"matchingType"`
	IsActive           bool                   `gorm:"not null;index" json:"isActive"`
	Status             constants.TaskStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	AssignedExpertID   *string                `gorm:"size:64;index" json:"assignedExpertId"`
	AssignedExpertName string                 `json:"assignedExpertName"`
	AssignedAt         *time.Time             `json:"assignedAt"`

	RequesterID   string `gorm:"size:64;not null;index" json:"requesterId"`
	RequesterName string `json:"requesterName"`

	Delivery datatypes.JSONType[*Delivery] `json:"delivery"`

	// SearchKeywords is the space-delimited feed search index, see
	// services.SearchKeywords.
	SearchKeywords string `gorm:"type:text" json:"-"`

	DisputeReason *string `json:"disputeReason"`
	RevisionNotes *string `json:"revisionNotes"`
	CancelReason  *string `json:"cancelReason"`

	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	DisputedAt          *time.Time `json:"disputedAt,omitempty"`
	CancelledAt         *time.Time `json:"cancelledAt,omitempty"`
	RevisionRequestedAt *time.Time `json:"revisionRequestedAt,omitempty"`
	PaymentReceivedAt   *time.Time `json:"paymentReceivedAt,omitempty"`

	ViewCount int64     `gorm:"not null;default:0" json:"viewCount"`
	Version   uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Delivery is the expert's submitted work. File contents live in external
// storage; only their metadata is kept here.
type Delivery struct {
	Files       []DeliveryFile `json:"files"`
	Message     string         `json:"message"`
	SubmittedAt time.Time      `json:"submittedAt"`
	SubmittedBy string         `json:"submittedBy"`
}

type DeliveryFile struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Category   string    `json:"category,omitempty"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// DeliveryData returns the delivery sub-record, nil when nothing was submitted.
func (t *Task) DeliveryData() *Delivery {
	return t.Delivery.Data()
}

// Assign sets every assignment field at once so the assignment invariant
// cannot be half applied.
func (t *Task) Assign(expertID, expertName string, at time.Time) {
	t.AssignedExpertID = &expertID
	t.AssignedExpertName = expertName
	t.AssignedAt = &at
}

func (t *Task) ClearAssignment() {
	t.AssignedExpertID = nil
	t.AssignedExpertName = ""
	t.AssignedAt = nil
}

func (t *Task) ExpertID() string {
	if t.AssignedExpertID == nil {
		return ""
	}
	return *t.AssignedExpertID
}

// SyncVisibility derives IsActive from the matching type and status.
func (t *Task) SyncVisibility() {
	t.IsActive = t.MatchingType == constants.MatchingManual && t.Status == constants.StatusAwaitingExpert
}
