package events

import (
	"context"
	"encoding/json"
	"time"

	"assignmint.com/assignmint/internal/constants"
)

const SubjectPrefix = "assignmint.event.task."

type EventType string

const (
	EventTaskCreated       EventType = "created"
	EventTaskAccepted      EventType = "accepted"
	EventTaskDelivered     EventType = "delivered"
	EventTaskApproved      EventType = "approved"
	EventTaskDisputed      EventType = "disputed"
	EventTaskCancelled     EventType = "cancelled"
	EventTaskReopened      EventType = "reopened"
	EventRevisionRequested EventType = "revision_requested"
	EventPaymentReleased   EventType = "payment_released"
)

// TaskEvent is published after a lifecycle transition has committed.
type TaskEvent struct {
	Type        EventType            `json:"type"`
	TaskID      string               `json:"taskId"`
	Status      constants.TaskStatus `json:"status"`
	ActorID     string               `json:"actorId,omitempty"`
	RequesterID string               `json:"requesterId"`
	ExpertID    string               `json:"expertId,omitempty"`
	Version     uint                 `json:"version"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

func (e TaskEvent) Subject() string {
	return SubjectPrefix + string(e.Type)
}

type Publisher interface {
	Publish(ctx context.Context, event TaskEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TaskEvent) error { return nil }

// SubjectPublisher encodes events as JSON and hands them to a raw publish
// function keyed by subject.
type SubjectPublisher struct {
	publish func(subject string, payload []byte) error
}

func NewSubjectPublisher(publish func(subject string, payload []byte) error) *SubjectPublisher {
	return &SubjectPublisher{publish: publish}
}

func (p *SubjectPublisher) Publish(ctx context.Context, event TaskEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.publish(event.Subject(), payload)
}
