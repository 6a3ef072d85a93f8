package transport

import (
	"context"
	"sync"
)

// frameConn is one message-framed connection: IPC frames on a newline
// delimiter, WebSocket frames on the underlying protocol's message
// boundaries. One WriteFrame call sends exactly one JSON-RPC envelope.
type frameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame([]byte) error
	Close() error
}

// connHolder is the generic shape behind
// PersistentSocket/PersistentWebSocket/PersistentHTTPSession: the
// connection is a shared, long-lived resource that is lazily dialed on
// first use and cached, not redialed per call. A failed operation
// calls Invalidate so the *next* acquisition redials a fresh
// connection; Close is the explicit normal-path teardown.
type connHolder struct {
	dial func(ctx context.Context) (frameConn, error)

	mu   sync.Mutex
	conn frameConn
}

func newConnHolder(dial func(ctx context.Context) (frameConn, error)) *connHolder {
	return &connHolder{dial: dial}
}

// Acquire returns the cached connection, dialing one if none is cached
// yet.
func (h *connHolder) Acquire(ctx context.Context) (frameConn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil {
		return h.conn, nil
	}
	conn, err := h.dial(ctx)
	if err != nil {
		return nil, err
	}
	h.conn = conn
	return conn, nil
}

// Invalidate closes and drops the cached connection so the next
// Acquire redials. Safe to call more than once.
func (h *connHolder) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return
	}
	_ = h.conn.Close()
	h.conn = nil
}

// Close is the explicit normal-path teardown; idempotent.
func (h *connHolder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}
