package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/medassist/triage/internal/consult"
)

// Broadcaster fans turn events out to SSE clients. One Broadcaster per
// consultation. Thread-safe.
type Broadcaster struct {
	mu      sync.Mutex
	history []consult.Turn
	clients map[uint64]chan consult.Turn
	nextID  uint64
	closed  bool
	doneCh  chan struct{} // closed on Close(), not on slow-client drops
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[uint64]chan consult.Turn),
		doneCh:  make(chan struct{}),
	}
}

// Send publishes one turn. It is the session's OnTurn callback and must
// never block the orchestration loop: slow clients are dropped.
func (b *Broadcaster) Send(turn consult.Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.history = append(b.history, turn)
	for id, ch := range b.clients {
		select {
		case ch <- turn:
		default:
			close(ch)
			delete(b.clients, id)
		}
	}
}

// Subscribe returns a turn channel, a done channel, and an unsubscribe
// function. The turn channel replays all history first, then live turns.
// The done channel closes only when the consultation finishes.
func (b *Broadcaster) Subscribe() (<-chan consult.Turn, <-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan consult.Turn, len(b.history)+64)
	id := b.nextID
	b.nextID++

	// Replay fits the buffer, so this never blocks while holding the mutex.
	for _, turn := range b.history {
		ch <- turn
	}

	if b.closed {
		close(ch)
		return ch, b.doneCh, func() {}
	}

	b.clients[id] = ch
	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.clients[id]; ok {
			delete(b.clients, id)
			close(ch)
		}
	}
	return ch, b.doneCh, unsub
}

// Close signals that no more turns will arrive.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.doneCh)
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
}

// writeSSE writes one turn as a named SSE event and flushes.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
