package core

import (
	"context"
	"encoding/json"
	"time"
)

// Broadcast event names.
const (
	EventContactCreated = "contact:created"
	EventStudentCreated = "student:created"
)

// Event is a message published on the app's broadcast channel.
type Event struct {
	ID         string          `json:"id"`
	Name       string          `json:"event"`
	OwnerID    string          `json:"owner_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Broadcaster publishes and fans out Events.
// Delivery is best effort: subscribers only see events published while subscribed.
type Broadcaster interface {
	Publish(ctx context.Context, evt Event) error
	// Subscribe returns a channel of events that is closed once ctx is done.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
