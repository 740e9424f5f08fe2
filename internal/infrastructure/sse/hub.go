package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/closet-hub/closet-hub/internal/domain/notification"
)

// Hub manages SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.SSEClient
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*notification.SSEClient),
	}
}

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) BroadcastToGroup(group string, message *notification.SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		for _, g := range c.Groups {
			if g == group {
				trySend(c, message)
				break
			}
		}
	}
}

// Stop closes every connected client; their read loops see a closed
// channel and return.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}

// GroupReviewers is the group every connected moderator console joins.
const GroupReviewers = "reviewers"

// HubNotifier adapts the hub to the notification.Notifier interface:
// messages become SSE frames broadcast to the reviewer group.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(_ context.Context, msg *notification.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	n.hub.BroadcastToGroup(GroupReviewers, notification.NewSSEMessage("notification", data))
	return nil
}
