package transport

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

// wsFrameConn frames messages over a WebSocket connection: one
// text-or-binary frame is one message. Text is decoded as UTF-8, binary
// is taken verbatim; one WriteFrame call sends one envelope as one text
// frame. Grounded on WebSocketRPCClient (rpc/websocket.go), which uses
// the same gorilla/websocket dialer.
type wsFrameConn struct {
	conn *websocket.Conn
}

func dialWebSocket(url string) func(ctx context.Context) (frameConn, error) {
	return func(ctx context.Context) (frameConn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return &wsFrameConn{conn: conn}, nil
	}
}

func (c *wsFrameConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *wsFrameConn) WriteFrame(b []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsFrameConn) Close() error {
	return c.conn.Close()
}

// WebSocketTransport is a bidirectional transport over ws://wss://,
// sharing the multiplexer algorithm with IPCTransport via composition.
type WebSocketTransport struct {
	mux *multiplexer
}

// NewWebSocketTransport dials (lazily, on first use) the WebSocket
// endpoint at url.
func NewWebSocketTransport(url string, opts ...Option) *WebSocketTransport {
	cfg := applyOptions(opts)
	return &WebSocketTransport{mux: newMultiplexer(dialWebSocket(url), cfg.metrics, cfg.timeout)}
}

func (t *WebSocketTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return t.mux.SendRequest(ctx, method, params)
}

func (t *WebSocketTransport) Subscribe(ctx context.Context, params interface{}) (*Subscription, error) {
	return t.mux.Subscribe(ctx, params)
}

func (t *WebSocketTransport) Unsubscribe(ctx context.Context, sub *Subscription) error {
	return t.mux.Unsubscribe(ctx, sub)
}

func (t *WebSocketTransport) Close() error {
	return t.mux.Close()
}
