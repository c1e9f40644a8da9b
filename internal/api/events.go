package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/events"
	"git.home.luguber.info/inful/grdesk/internal/logfields"
)

const (
	sseBuffer    = 32
	sseKeepAlive = 30 * time.Second
)

// handleEvents streams bus events as Server-Sent Events until the client
// disconnects or the bus closes. Events a slow client cannot take are dropped
// by the bus, never blocking dispatch.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.Fail(w, r, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, unsubscribe := events.Subscribe[events.Event](s.cfg.Bus, sseBuffer)
	defer unsubscribe()

	s.logger.DebugContext(r.Context(), "Event stream opened")
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.DebugContext(r.Context(), "Event stream closed")
			return
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, evt); err != nil {
				s.logger.WarnContext(r.Context(), "Failed to write event", logfields.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("Failed to marshal SSE event", logfields.Error(err))
		return nil
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.EventName(), data)
	return err
}
