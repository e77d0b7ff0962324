package events

import (
	"encoding/json"
	"time"
)

const (
	SeedRequestedTopic = "portal.seed.requested.v1"
	SeedRequestedType  = "seed_requested"
)

// SeedRequestedEvent carries one batch of records of a single kind. Records is
// kept raw so the consumer can decode it strictly against the kind's schema.
type SeedRequestedEvent struct {
	EventType  string          `json:"event_type"`
	RequestID  string          `json:"request_id"`
	Kind       string          `json:"kind"`
	Records    json.RawMessage `json:"records"`
	OccurredAt time.Time       `json:"occurred_at"`
}
