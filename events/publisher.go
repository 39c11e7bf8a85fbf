package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher sends lifecycle events to the user events topic. Publish is
// fire-and-forget: a nil error means the broker accepted the message, nothing
// more.
type Publisher interface {
	Publish(ctx context.Context, event UserEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event UserEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event UserEvent) error {
	return f(ctx, event)
}

// Encode serialises an event for the wire.
func Encode(event UserEvent) ([]byte, error) {
	if !event.EventType.Valid() {
		return nil, fmt.Errorf("unknown event type %q", event.EventType)
	}
	if event.Email == "" {
		return nil, fmt.Errorf("event key (email) is empty")
	}
	return json.Marshal(event)
}

// Decode parses a wire payload back into an event.
func Decode(data []byte) (UserEvent, error) {
	var event UserEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return UserEvent{}, fmt.Errorf("failed to unmarshal user event: %w", err)
	}
	if !event.EventType.Valid() {
		return UserEvent{}, fmt.Errorf("unknown event type %q", event.EventType)
	}
	return event, nil
}
