// Package sse implements a Server-Sent Events broker announcing site rebuilds.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventBuildCompleted = "build.completed"
	EventNoteUpdated    = "note.updated"
	EventNoteRemoved    = "note.removed"
	EventGraphUpdated   = "graph.updated"
)

const (
	clientBuffer     = 64
	inboxBuffer      = 256
	defaultKeepAlive = 30 * time.Second
	retryMillis      = 3000
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// BuildEvent describes a finished rebuild. Updated and Removed hold the
// ids of notes whose content changed or disappeared.
type BuildEvent struct {
	Summary any
	Updated []string
	Removed []string
}

type noteRef struct {
	ID string `json:"id"`
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithKeepAlive sets how often idle streams receive a comment line.
// Zero disables keep-alives.
func WithKeepAlive(d time.Duration) BrokerOption {
	return func(b *Broker) { b.keepAlive = d }
}

// Broker fans events out to connected SSE clients.
//
// One goroutine owns the client set and the graph throttle; every public
// method talks to it over channels.
type Broker struct {
	graphMin  time.Duration
	keepAlive time.Duration

	joins  chan chan []byte
	leaves chan chan []byte
	inbox  chan any // Event or BuildEvent
	counts chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that emits graph.updated at most once per
// graphThrottle.
func NewBroker(graphThrottle time.Duration, opts ...BrokerOption) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		graphMin:  graphThrottle,
		keepAlive: defaultKeepAlive,
		joins:     make(chan chan []byte),
		leaves:    make(chan chan []byte),
		inbox:     make(chan any, inboxBuffer),
		counts:    make(chan chan int),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.loop()
	return b
}

// hub is the state owned by the broker goroutine.
type hub struct {
	clients   map[chan []byte]struct{}
	seq       uint64
	lastGraph time.Time
	graphMin  time.Duration
}

func (h *hub) send(typ string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, typ, payload))

	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// slow client, drop
		}
	}
}

func (h *hub) build(ev BuildEvent) {
	h.send(EventBuildCompleted, ev.Summary)
	for _, id := range ev.Updated {
		h.send(EventNoteUpdated, noteRef{ID: id})
	}
	for _, id := range ev.Removed {
		h.send(EventNoteRemoved, noteRef{ID: id})
	}
	if len(ev.Updated) == 0 && len(ev.Removed) == 0 {
		return
	}
	if now := time.Now(); now.Sub(h.lastGraph) >= h.graphMin {
		h.lastGraph = now
		h.send(EventGraphUpdated, struct{}{})
	}
}

func (b *Broker) loop() {
	defer close(b.stopped)

	h := &hub{clients: make(map[chan []byte]struct{}), graphMin: b.graphMin}
	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				close(ch)
			}
			return

		case ch := <-b.joins:
			h.clients[ch] = struct{}{}

		case ch := <-b.leaves:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}

		case msg := <-b.inbox:
			switch m := msg.(type) {
			case Event:
				h.send(m.Type, m.Data)
			case BuildEvent:
				h.build(m)
			}

		case resp := <-b.counts:
			resp <- len(h.clients)
		}
	}
}

// Close stops the broker and closes every client channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed on
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.joins <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leaves <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.counts <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends a single event to all clients.
func (b *Broker) Publish(event Event) {
	b.enqueue(event)
}

// PublishBuild announces a rebuild, one event per changed note, and a
// throttled graph.updated when anything changed.
func (b *Broker) PublishBuild(ev BuildEvent) {
	b.enqueue(ev)
}

func (b *Broker) enqueue(msg any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.inbox <- msg:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.keepAlive > 0 {
		t := time.NewTicker(b.keepAlive)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
