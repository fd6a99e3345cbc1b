package domain

import "time"

// Event types pushed to a user's connected clients.
const (
	EventRecordSaved   = "record.saved"
	EventRecordDeleted = "record.deleted"
	EventGoalSaved     = "goal.saved"
)

// Event notifies a user's clients that their data changed.
type Event struct {
	Type   string        `json:"type"`
	UserID string        `json:"-"`
	Date   string        `json:"date,omitempty"`
	Record *HealthRecord `json:"record,omitempty"`
	Goal   *WeightGoal   `json:"goal,omitempty"`
	At     time.Time     `json:"at"`
}

// EventPublisher delivers events. Publish must not block on slow clients.
type EventPublisher interface {
	Publish(ev Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) {}
