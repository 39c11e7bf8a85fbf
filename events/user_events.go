package events

import "fmt"

type EventType string

const (
	UserCreated EventType = "CREATED"
	UserDeleted EventType = "DELETED"
)

func (t EventType) Valid() bool {
	return t == UserCreated || t == UserDeleted
}

// UserEvent announces a user lifecycle change. It is keyed by email.
type UserEvent struct {
	Email     string    `json:"email"`
	EventType EventType `json:"eventType"`
}

func (e UserEvent) String() string {
	return fmt.Sprintf("UserEvent{email=%s, type=%s}", e.Email, e.EventType)
}
