package webui

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// handleSSEEvents streams console events. ?filter=a,b limits the event types.
func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	var filters []string
	if filterStr := r.URL.Query().Get("filter"); filterStr != "" {
		filters = strings.Split(filterStr, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientID := uuid.NewString()
	client, err := s.sseManager.RegisterClient(clientID, filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.sseManager.UnregisterClient(clientID)

	snap := s.dispatcher.Snapshot()
	_, _ = fmt.Fprintf(w, "event: %s\ndata: {\"client_id\":%q,\"version\":%d}\n\n",
		EventTypeConnected, clientID, snap.Version)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done:
			return
		case data, ok := <-client.Events:
			if !ok {
				return
			}
			_, _ = w.Write(data)
			flusher.Flush()
		}
	}
}
