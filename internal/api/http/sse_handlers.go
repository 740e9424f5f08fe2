package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/closet-hub/closet-hub/internal/domain/notification"
	"github.com/closet-hub/closet-hub/internal/infrastructure/sse"
)

// sseEndpoint streams workflow notifications to a connected reviewer
// console. Every authenticated client joins the reviewer group.
func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}
	var userPtr *string
	groups := []string{sse.GroupReviewers}
	if auth := authUserFromContext(r.Context()); auth != nil {
		username := auth.Username
		userPtr = &username
	}
	client := notification.NewSSEClient(clientID, userPtr, groups)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
