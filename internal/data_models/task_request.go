package dto

import "time"

type CreateTaskRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Subject      string    `json:"subject"`
	Tags         []string  `json:"tags"`
	Urgency      string    `json:"urgency"`
	Budget       float64   `json:"budget"`
	Deadline     time.Time `json:"deadline"`
	MatchingType string    `json:"matchingType"`
}

type DeliveryFileRequest struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

type DeliveryRequest struct {
	Files   []DeliveryFileRequest `json:"files"`
	Message string                `json:"message"`
}

type TaskActionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}
