package domain

import "time"

// EventType identifies a run lifecycle event.
type EventType string

const (
	EventTypeRunStarted    EventType = "run.started"
	EventTypeRunCompleted  EventType = "run.completed"
	EventTypeRunCancelled  EventType = "run.cancelled"
	EventTypeNodeStarted   EventType = "node.started"
	EventTypeNodeCompleted EventType = "node.completed"
	EventTypeNodeFailed    EventType = "node.failed"
	EventTypeNodeSkipped   EventType = "node.skipped"
	EventTypeNodeCancelled EventType = "node.cancelled"
)

// Event topics on the event bus.
const (
	TopicRunEvents  = "run.events"
	TopicNodeEvents = "node.events"
)

// Event is published on the event bus as runs progress.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	RunID     string                 `json:"run_id"`
	NodeID    string                 `json:"node_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NodeEventType maps a terminal node state to its event type.
func NodeEventType(s NodeState) EventType {
	switch s {
	case NodeStateCompleted:
		return EventTypeNodeCompleted
	case NodeStateFailed:
		return EventTypeNodeFailed
	case NodeStateSkipped:
		return EventTypeNodeSkipped
	case NodeStateCancelled:
		return EventTypeNodeCancelled
	default:
		return EventTypeNodeStarted
	}
}
