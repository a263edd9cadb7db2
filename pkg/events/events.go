// Package events defines the notifications published when run metadata changes.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every flowmeta event.
const Topic = "flowmeta.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RichRunUpdatedEvent EventType = "rich_run.updated"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RichRunUpdated is published after a rich run was created or updated.
type RichRunUpdated struct {
	BaseEvent

	RunNumber       int64  `json:"run_number"`
	Success         *bool  `json:"success"`
	Finished        bool   `json:"finished"`
	FinishedAt      *int64 `json:"finished_at"`
	ExecutionLength *int64 `json:"execution_length"`
	CreatedAt       int64  `json:"created_at"`
}

func (r RichRunUpdated) GetType() EventType {
	return RichRunUpdatedEvent
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}
