// Package hub streams catalog change events to Server-Sent Events clients.
//
// Clients connect with GET and may narrow the stream to one model with
// ?model=Name. Every frame carries an increasing id and the event name.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Message is one event to fan out
type Message struct {
	// Event is the SSE event name, e.g. "model_created"
	Event string

	// Model is matched against a client's ?model= filter. Empty reaches every client.
	Model string

	// Data is JSON-encoded into the frame's data line
	Data any
}

type subscriber struct {
	id    string
	model string
	out   chan []byte
}

// Hub tracks connected stream clients
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool
	seq    atomic.Uint64

	keepAlive time.Duration
	bufSize   int
	log       zerolog.Logger
}

func New(log zerolog.Logger) *Hub {
	return &Hub{
		subs:      make(map[string]*subscriber),
		keepAlive: 30 * time.Second,
		bufSize:   64,
		log:       log.With().Str("component", "hub").Logger(),
	}
}

// Run blocks until ctx is done, then disconnects every client and refuses new ones.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.out)
	}
}

// Broadcast encodes msg once and queues it for every matching client.
// Clients whose buffer is full miss the frame.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		h.log.Error().Err(err).Str("event", msg.Event).Msg("failed to encode event")
		return
	}

	frame := fmt.Appendf(nil, "id: %d\n", h.seq.Add(1))
	if msg.Event != "" {
		frame = fmt.Appendf(frame, "event: %s\n", msg.Event)
	}
	frame = fmt.Appendf(frame, "data: %s\n\n", data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.model != "" && msg.Model != "" && s.model != msg.Model {
			continue
		}
		select {
		case s.out <- frame:
		default:
			h.log.Warn().Str("client", s.id).Str("event", msg.Event).Msg("client buffer full, frame dropped")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe(model string) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}

	s := &subscriber{id: uuid.NewString(), model: model, out: make(chan []byte, h.bufSize)}
	h.subs[s.id] = s
	h.log.Debug().Str("client", s.id).Str("model", model).Int("total", len(h.subs)).Msg("stream client connected")
	return s, true
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.out)
	h.log.Debug().Str("client", s.id).Int("total", len(h.subs)).Msg("stream client disconnected")
}

// ServeHTTP streams frames to one client until it disconnects or the hub stops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	s, ok := h.subscribe(r.URL.Query().Get("model"))
	if !ok {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(s)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-s.out:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
