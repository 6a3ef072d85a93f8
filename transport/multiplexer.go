package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
	"github.com/desktable/aioweb3/internal/elog"
)

// multiplexer is the shared two-way transport base: outstanding-request
// table, subscription queues, and the persistent listener lifecycle.
// IPCTransport and WebSocketTransport each wrap a multiplexer
// configured with their own frame dialer, rather than inheriting from
// it — composition over a multiplexer generic over a byte-frame
// connection.
type multiplexer struct {
	holder  *connHolder
	metrics Metrics
	timeout time.Duration

	idCounter atomic.Uint64

	writeMu sync.Mutex

	outstandingMu sync.Mutex
	outstanding   map[uint64]chan responseOrErr

	subsMu        sync.Mutex
	subscriptions map[string]*Subscription

	listener *persistentListener
}

type responseOrErr struct {
	resp *ethtypes.Response
	err  error
}

func newMultiplexer(dial func(ctx context.Context) (frameConn, error), metrics Metrics, timeout time.Duration) *multiplexer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &multiplexer{
		holder:        newConnHolder(dial),
		metrics:       metrics,
		timeout:       timeout,
		outstanding:   make(map[uint64]chan responseOrErr),
		subscriptions: make(map[string]*Subscription),
		listener:      newPersistentListener(),
	}
}

// SendRequest implements the two-way transport send path: allocate a
// fresh awaiter, ensure the listener is running and has signaled ready,
// write the envelope, and suspend on the awaiter.
func (m *multiplexer) SendRequest(ctx context.Context, method string, params interface{}) (result json.RawMessage, err error) {
	start := time.Now()
	defer func() { m.metrics.ObserveCall(method, time.Since(start), err) }()

	id := m.idCounter.Add(1)
	ch := make(chan responseOrErr, 1)

	m.outstandingMu.Lock()
	m.outstanding[id] = ch
	m.outstandingMu.Unlock()
	defer func() {
		m.outstandingMu.Lock()
		delete(m.outstanding, id)
		m.outstandingMu.Unlock()
	}()

	ready := m.listener.ensureRunning(m.listenLoop)
	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ethrpc.TimeoutError(ctx.Err(), "send_request: listener did not become ready for %s", method)
	}

	req := ethtypes.NewRequest(id, method, params)
	payload, marshalErr := json.Marshal(req)
	if marshalErr != nil {
		return nil, ethrpc.ParseError(marshalErr, "encode request for %s", method)
	}

	conn, acquireErr := m.holder.Acquire(ctx)
	if acquireErr != nil {
		return nil, ethrpc.TransportError(acquireErr, "acquire connection for %s", method)
	}

	// Writes are serialized per connection; reads occur only on the listener goroutine.
	m.writeMu.Lock()
	writeErr := conn.WriteFrame(payload)
	m.writeMu.Unlock()
	if writeErr != nil {
		m.holder.Invalidate()
		return nil, ethrpc.TransportError(writeErr, "write request for %s", method)
	}

	deadlineCtx, cancel := withDeadline(ctx, m.timeout)
	defer cancel()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if r.resp.Error != nil {
			return nil, ethrpc.ProtocolError(r.resp.Error, "rpc error for %s", method)
		}
		return r.resp.Result, nil
	case <-deadlineCtx.Done():
		return nil, ethrpc.TimeoutError(deadlineCtx.Err(), "send_request timed out waiting for %s", method)
	}
}

// Subscribe issues eth_subscribe and registers a fresh queue for the
// returned subscription id.
func (m *multiplexer) Subscribe(ctx context.Context, params interface{}) (*Subscription, error) {
	raw, err := m.SendRequest(ctx, "eth_subscribe", params)
	if err != nil {
		return nil, err
	}
	var subID string
	if err := json.Unmarshal(raw, &subID); err != nil {
		return nil, ethrpc.ParseError(err, "decode subscription id")
	}
	sub := newSubscription(subID)
	m.subsMu.Lock()
	m.subscriptions[subID] = sub
	m.subsMu.Unlock()
	return sub, nil
}

// Unsubscribe invokes eth_unsubscribe, removes the mapping, and
// releases the queue.
func (m *multiplexer) Unsubscribe(ctx context.Context, sub *Subscription) error {
	m.subsMu.Lock()
	delete(m.subscriptions, sub.ID)
	m.subsMu.Unlock()
	sub.close()

	_, err := m.SendRequest(ctx, "eth_unsubscribe", []interface{}{sub.ID})
	return err
}

// Close releases the underlying connection. Idempotent.
func (m *multiplexer) Close() error {
	m.subsMu.Lock()
	for id, sub := range m.subscriptions {
		sub.close()
		delete(m.subscriptions, id)
	}
	m.subsMu.Unlock()
	return m.holder.Close()
}

// listenLoop is the long-lived task: repeatedly read one framed message
// and dispatch it to the matching awaiter or subscription queue. On any
// read failure it terminates, invalidates the cached connection, and
// fails every outstanding awaiter with a TransportError rather than
// relying solely on per-call timeouts.
func (m *multiplexer) listenLoop(ready chan struct{}) {
	defer m.listener.markDone()

	conn, err := m.holder.Acquire(context.Background())
	if err != nil {
		close(ready)
		m.failAllOutstanding(ethrpc.TransportError(err, "listener: failed to acquire connection"))
		return
	}

	close(ready)

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			elog.L.Warn().Err(err).Msg("listener: read failed, terminating")
			m.holder.Invalidate()
			m.failAllOutstanding(ethrpc.TransportError(err, "listener terminated"))
			return
		}
		m.dispatch(frame)
	}
}

// dispatch parses one frame and routes it to its awaiter (Response) or
// subscription queue (Notification).
func (m *multiplexer) dispatch(raw []byte) {
	isNotification, err := ethtypes.IsNotification(raw)
	if err != nil {
		elog.L.Warn().Err(err).Bytes("payload", raw).Msg("listener: malformed message")
		return
	}

	if isNotification {
		var n ethtypes.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			elog.L.Warn().Err(err).Msg("listener: malformed notification")
			return
		}
		m.subsMu.Lock()
		sub, ok := m.subscriptions[n.Params.Subscription]
		m.subsMu.Unlock()
		if !ok {
			elog.L.Debug().Str("subscription", n.Params.Subscription).Msg("unsolicited notification, dropped")
			return
		}
		sub.deliver(n.Params.Result)
		return
	}

	var resp ethtypes.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		elog.L.Warn().Err(err).Msg("listener: malformed response")
		return
	}

	m.outstandingMu.Lock()
	ch, ok := m.outstanding[resp.ID]
	if ok {
		delete(m.outstanding, resp.ID)
	}
	m.outstandingMu.Unlock()

	if !ok {
		elog.L.Debug().Uint64("id", resp.ID).Msg("unsolicited response, dropped")
		return
	}

	r := resp
	select {
	case ch <- responseOrErr{resp: &r}:
	default:
	}
}

func (m *multiplexer) failAllOutstanding(reason error) {
	m.outstandingMu.Lock()
	pending := m.outstanding
	m.outstanding = make(map[uint64]chan responseOrErr)
	m.outstandingMu.Unlock()

	for id, ch := range pending {
		select {
		case ch <- responseOrErr{err: fmt.Errorf("%w (request id %d)", reason, id)}:
		default:
		}
	}
}
