package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closet-hub/closet-hub/internal/infrastructure/sse"
)

// noFlushWriter hides the recorder's Flusher so the handler sees a
// writer that cannot stream.
type noFlushWriter struct {
	http.ResponseWriter
}

func newSSETestServer() *Server {
	return NewServer(nil, nil, nil, nil, sse.NewHub(), nil, "test_session", false)
}

func TestSSEEndpointRejectsNonStreamingWriter(t *testing.T) {
	s := newSSETestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications/sse", nil)

	s.sseEndpoint(noFlushWriter{rec}, req)

	res := rec.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
}

func TestSSEEndpointStreamsConnectedComment(t *testing.T) {
	s := newSSETestServer()
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications/sse?client_id=c1", nil).WithContext(ctx)

	s.sseEndpoint(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), ": connected"))
}
