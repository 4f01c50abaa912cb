package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
)

// DefaultMaxAttempts is how many times an event is handed to a handler
// before it is dead-lettered
const DefaultMaxAttempts = 5

// envelope wraps an event with delivery bookkeeping for transports that
// have none of their own
type envelope struct {
	ID          string     `json:"id"`
	Topic       string     `json:"topic"`
	Event       core.Event `json:"event"`
	Attempts    int        `json:"attempts"`
	PublishedAt time.Time  `json:"publishedAt"`
}

func newEnvelope(topic string, ev core.Event) envelope {
	return envelope{
		ID:          uuid.NewString(),
		Topic:       topic,
		Event:       ev,
		PublishedAt: time.Now().UTC(),
	}
}

func (e envelope) encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (envelope, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return e, nil
}

func validTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}
	return nil
}
