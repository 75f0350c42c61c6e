// Package sse implements a Server-Sent Events broker that tells readers of
// the catalog when its documents change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeDocumentChanged = "document.changed"
	TypeCatalogUpdated  = "catalog.updated"
)

// Event represents an SSE event to broadcast. ID is assigned by the broker.
type Event struct {
	ID   uint64 `json:"-"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DocumentChanged is the payload of a document.changed event.
type DocumentChanged struct {
	Path string `json:"path"`
}

// CatalogUpdated is the payload of a catalog.updated event. Paths lists
// every document changed since the previous catalog.updated event.
type CatalogUpdated struct {
	Paths []string `json:"paths"`
}

type changeReq struct {
	paths     []string
	reindexed bool
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the clients, the event sequence and
// the catalog throttle. Public methods talk to it over channels.
type Broker struct {
	catalogMin time.Duration
	keepAlive  time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. catalog.updated events are sent at
// most once per throttle interval; updates arriving in between are merged
// into one event sent when the interval ends.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		catalogMin:    throttle,
		keepAlive:     25 * time.Second,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// frame renders an event in the wire format.
func frame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Type, payload), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var seq uint64

	var lastCatalog time.Time
	var pending []string
	var flush *time.Timer
	var flushC <-chan time.Time

	broadcast := func(e Event) {
		seq++
		e.ID = seq
		raw, err := frame(e)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	sendCatalog := func(now time.Time) {
		if flush != nil {
			flush.Stop()
			flushC = nil
		}
		lastCatalog = now
		broadcast(Event{Type: TypeCatalogUpdated, Data: CatalogUpdated{Paths: pending}})
		pending = nil
	}

	for {
		select {
		case <-b.stopCh:
			if flush != nil {
				flush.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			for _, p := range req.paths {
				broadcast(Event{Type: TypeDocumentChanged, Data: DocumentChanged{Path: p}})
			}
			if !req.reindexed {
				continue
			}
			for _, p := range req.paths {
				if !slices.Contains(pending, p) {
					pending = append(pending, p)
				}
			}
			if pending == nil {
				pending = []string{}
			}
			now := time.Now()
			if wait := b.catalogMin - now.Sub(lastCatalog); wait > 0 {
				if flushC == nil {
					flush = time.NewTimer(wait)
					flushC = flush.C
				}
				continue
			}
			sendCatalog(now)

		case now := <-flushC:
			flushC = nil
			if pending != nil {
				sendCatalog(now)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
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
	case b.unsubscribeCh <- ch:
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
	case b.countReqCh <- resp:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange publishes one document.changed event per path and, when
// the index was rebuilt, a throttled catalog.updated event.
func (b *Broker) PublishChange(paths []string, reindexed bool) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{paths: paths, reindexed: reindexed}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). Idle
// connections get a comment line every keep-alive interval.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: 3000\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
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
