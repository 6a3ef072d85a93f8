package transport

import (
	"encoding/json"
	"sync"

	"github.com/desktable/aioweb3/internal/elog"
)

// subscriptionQueueSize bounds the per-subscription notification
// queue. A generously sized bounded queue is chosen so a slow consumer
// cannot grow the process's memory without limit. A full queue drops
// the oldest pending notification to make room for the newest, the way
// a live feed (new heads, pending txs) should behave under
// backpressure.
const subscriptionQueueSize = 4096

// Subscription is a server-initiated push channel created by
// eth_subscribe and destroyed by eth_unsubscribe. Iterating
// Notifications() yields notifications in arrival order.
type Subscription struct {
	ID string

	mu     sync.Mutex
	ch     chan json.RawMessage
	closed bool
}

func newSubscription(id string) *Subscription {
	return &Subscription{ID: id, ch: make(chan json.RawMessage, subscriptionQueueSize)}
}

// Notifications returns the channel of decoded `params.result`
// payloads for this subscription, in server order.
func (s *Subscription) Notifications() <-chan json.RawMessage {
	return s.ch
}

func (s *Subscription) deliver(raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- raw:
			return
		default:
		}
		select {
		case <-s.ch:
			elog.L.Warn().Str("subscription", s.ID).Msg("subscription queue full, dropping oldest notification")
		default:
			return
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
