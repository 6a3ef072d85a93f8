package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"
)

// ipcFrameConn frames messages over a UNIX-domain socket on a newline
// delimiter, the convention agreed with the node in practice:
// read-until yields one message per frame, one WriteFrame call sends
// one envelope as one frame.
type ipcFrameConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dialIPC(path string) func(ctx context.Context) (frameConn, error) {
	return func(ctx context.Context) (frameConn, error) {
		d := net.Dialer{}
		conn, err := d.DialContext(ctx, "unix", path)
		if err != nil {
			return nil, err
		}
		return &ipcFrameConn{conn: conn, reader: bufio.NewReaderSize(conn, 64*1024)}, nil
	}
}

func (c *ipcFrameConn) ReadFrame() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	// Trim the trailing delimiter; a bare '\n' with no preceding
	// content is never produced by a conforming node.
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return line, nil
}

func (c *ipcFrameConn) WriteFrame(b []byte) error {
	b = append(append([]byte(nil), b...), '\n')
	if err := c.conn.SetWriteDeadline(time.Now().Add(DefaultTimeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(b)
	return err
}

func (c *ipcFrameConn) Close() error {
	return c.conn.Close()
}

// IPCTransport is a bidirectional transport over a UNIX-domain socket,
// sharing the multiplexer algorithm with WebSocketTransport via
// composition rather than inheritance.
type IPCTransport struct {
	mux *multiplexer
}

// NewIPCTransport dials (lazily, on first use) a UNIX-domain socket at
// path.
func NewIPCTransport(path string, opts ...Option) *IPCTransport {
	cfg := applyOptions(opts)
	return &IPCTransport{mux: newMultiplexer(dialIPC(path), cfg.metrics, cfg.timeout)}
}

func (t *IPCTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return t.mux.SendRequest(ctx, method, params)
}

func (t *IPCTransport) Subscribe(ctx context.Context, params interface{}) (*Subscription, error) {
	return t.mux.Subscribe(ctx, params)
}

func (t *IPCTransport) Unsubscribe(ctx context.Context, sub *Subscription) error {
	return t.mux.Unsubscribe(ctx, sub)
}

func (t *IPCTransport) Close() error {
	return t.mux.Close()
}
