package events

import "time"

const (
	UserRegisteredTopic = "portal.user.registered.v1"
	UserRegisteredType  = "user_registered"
)

type UserRegisteredEvent struct {
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
