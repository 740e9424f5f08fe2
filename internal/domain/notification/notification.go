package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a best-effort notification summarizing a workflow event.
type Message struct {
	ID      string          `json:"id"`
	Subject string          `json:"subject"`
	Body    string          `json:"body"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SentAt  time.Time       `json:"sentAt"`
}

// NewMessage stamps identity and timestamp onto a message.
func NewMessage(subject, body string, payload json.RawMessage) *Message {
	return &Message{
		ID:      uuid.New().String(),
		Subject: subject,
		Body:    body,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}
}

// Notifier delivers messages best effort. Implementations must not let
// delivery failures escape past their own boundary with side effects;
// an error return is purely for the caller's logging.
type Notifier interface {
	Notify(ctx context.Context, msg *Message) error
}

// SSEMessage is a message frame pushed to connected admin clients.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// SSEClient represents an active SSE connection.
type SSEClient struct {
	ClientID    string
	UserID      *string
	Groups      []string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client.
func NewSSEClient(clientID string, userID *string, groups []string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		Groups:      groups,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// Fanout delivers a message to every notifier. All notifiers are
// attempted; the first error is returned for logging.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, msg *Message) error {
	var first error
	for _, n := range f {
		if err := n.Notify(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
