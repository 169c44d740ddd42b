package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"scanhub/internal/domain"
)

const streamPingInterval = 15 * time.Second

// streamAPI pushes newly accepted records for a mode as server-sent events.
// History is not replayed here; observers read /api/scans first.
func (s *Server) streamAPI(w http.ResponseWriter, r *http.Request) {
	mode := domain.ParseMode(r.URL.Query().Get("mode"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribe before the connected comment goes out, so a record committed
	// right after the client sees the preamble is not lost.
	ctx := r.Context()
	ch := s.collector.Subscribe(mode)
	defer s.collector.Unsubscribe(mode, ch)

	// Initial comment establishes the stream; retry tells EventSource how
	// long to wait before reconnecting if it does disconnect.
	fmt.Fprint(w, "retry: 2000\n\n")
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			// comment/heartbeat frame keeps intermediaries from timing out
			// the connection
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case rec, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}
