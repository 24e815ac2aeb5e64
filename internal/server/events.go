package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
)

// errNoFlush is returned when the response writer cannot stream.
var errNoFlush = errs.New(errs.ErrKindUnknown, "streaming unsupported")

// statusEventName is the SSE event type for connection status changes.
const statusEventName = "connectionStatusChanged"

// handleEvents streams connection status changes. The current status is
// sent first. Slow clients miss intermediate events rather than blocking
// the catalog client.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		fail(w, r, errNoFlush)
		return
	}

	events := make(chan catalog.StatusEvent, 8)
	unsubscribe := s.catalog.Subscribe(func(ev catalog.StatusEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	st := s.catalog.Status()
	if err := writeEvent(w, catalog.StatusEvent{Connected: st.Connected, SessionID: st.SessionID, Error: st.LastError}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := writeEvent(w, ev); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, ev catalog.StatusEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", statusEventName, data)
	return err
}
