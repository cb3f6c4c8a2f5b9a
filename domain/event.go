package domain

import "github.com/bytedance/sonic"

// Board event types published after a mutation persists.
const (
	EventTaskCreated     = "task-created"
	EventTaskUpdated     = "task-updated"
	EventTaskDeleted     = "task-deleted"
	EventCategoryCreated = "category-created"
	EventCategoryUpdated = "category-updated"
	EventCategoryDeleted = "category-deleted"
)

// Event records one persisted board change for downstream consumers.
type Event struct {
	ID         string                 `json:"id"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Type       string                 `json:"type"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// EventEnvelope wraps an event with the user it belongs to.
type EventEnvelope struct {
	UserID string `json:"userId"`
	Event  Event  `json:"event"`
}
