// Package transport implements the JSON-RPC transport layer: envelope
// construction and id generation shared by every transport kind, a
// one-POST-per-call HTTP transport, and a two-way multiplexer (shared
// by the IPC and WebSocket transports) that demultiplexes inbound
// responses to their originating awaiter and routes notifications to
// per-subscription queues over a single long-lived connection.
package transport

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTimeout is the per-call deadline applied to SendRequest when
// no WithTimeout option is given and the caller's context carries no
// deadline of its own.
const DefaultTimeout = 60 * time.Second

// Transport is the capability every transport kind exposes: a single
// request/response round trip. Bidirectional transports additionally
// implement Subscriber.
type Transport interface {
	// SendRequest constructs a JSON-RPC envelope with a fresh request
	// id, sends it, and returns the verbatim (still wire-form) result
	// on success. A non-null `error` in the response surfaces as a
	// ProtocolError; an expired deadline surfaces as a TimeoutError.
	SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error)

	// Close releases connection resources. Idempotent.
	Close() error
}

// Subscriber is implemented by bidirectional transports (IPC,
// WebSocket). HTTP does not implement it; callers type-assert or use
// CanSubscribe to detect support, and a direct Subscribe call on an
// HTTP transport fails with NotSupportedError.
type Subscriber interface {
	Subscribe(ctx context.Context, params interface{}) (*Subscription, error)
	Unsubscribe(ctx context.Context, sub *Subscription) error
}

// CanSubscribe reports whether t also implements Subscriber.
func CanSubscribe(t Transport) (Subscriber, bool) {
	s, ok := t.(Subscriber)
	return s, ok
}

// withDeadline applies timeout to ctx when it carries no
// deadline of its own, returning the (possibly unmodified) context and
// its cancel function. Callers must always invoke the returned cancel.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
