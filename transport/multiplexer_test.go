package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory frameConn: WriteFrame publishes to sent,
// ReadFrame blocks on reads, and Close drains the listener by closing
// reads exactly once.
type fakeConn struct {
	sent chan []byte
	reads chan []byte

	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		sent:  make(chan []byte, 256),
		reads: make(chan []byte, 256),
	}
}

func (c *fakeConn) WriteFrame(b []byte) error {
	cp := append([]byte(nil), b...)
	c.sent <- cp
	return nil
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	frame, ok := <-c.reads
	if !ok {
		return nil, io.EOF
	}
	return frame, nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.reads) })
	return nil
}

func newTestMultiplexer() (*multiplexer, *fakeConn) {
	conn := newFakeConn()
	m := newMultiplexer(func(ctx context.Context) (frameConn, error) {
		return conn, nil
	}, nil, time.Second)
	return m, conn
}

func decodeRequestID(t *testing.T, raw []byte) uint64 {
	t.Helper()
	var req struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &req))
	return req.ID
}

// echoResult replies to every request written to conn with a plain
// string result equal to its own id. conn.sent is never closed, so the
// goroutine runs until the test binary exits.
func echoResult(conn *fakeConn) {
	for raw := range conn.sent {
		id := struct {
			ID uint64 `json:"id"`
		}{}
		_ = json.Unmarshal(raw, &id)
		resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"%d"}`, id.ID, id.ID)
		conn.reads <- []byte(resp)
	}
}

func TestSendRequestUniqueAscendingIDs(t *testing.T) {
	m, conn := newTestMultiplexer()
	go echoResult(conn)

	const n = 20
	var wg sync.WaitGroup
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := m.SendRequest(context.Background(), "eth_blockNumber", []interface{}{})
			require.NoError(t, err)
			var s string
			require.NoError(t, json.Unmarshal(raw, &s))
			var id uint64
			fmt.Sscanf(s, "%d", &id)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d used twice", id)
		assert.True(t, id >= 1 && id <= n, "id %d out of expected range", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSendRequestDispatchOutOfOrder(t *testing.T) {
	m, conn := newTestMultiplexer()

	// Issue three requests concurrently; each caller reports the result
	// it resumed with on results.
	results := make(chan string, 3)
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := m.SendRequest(context.Background(), "eth_call", nil)
			require.NoError(t, err)
			var s string
			require.NoError(t, json.Unmarshal(raw, &s))
			results <- s
		}(i)
	}

	// Wait for all three requests to be written, then reply out of
	// order: 3, 1, 2.
	ids := make([]uint64, 3)
	for i := 0; i < 3; i++ {
		ids[i] = decodeRequestID(t, <-conn.sent)
	}
	order := []int{2, 0, 1}
	for _, idx := range order {
		id := ids[idx]
		conn.reads <- []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"result-%d"}`, id, id))
	}

	wg.Wait()
	close(results)
	got := make(map[string]bool)
	for r := range results {
		got[r] = true
	}
	for _, id := range ids {
		assert.True(t, got[fmt.Sprintf("result-%d", id)], "missing result for id %d", id)
	}
}

func TestSubscriptionNotificationFanout(t *testing.T) {
	m, conn := newTestMultiplexer()
	go func() {
		for raw := range conn.sent {
			id := decodeRequestID(t, raw)
			var req struct {
				Method string `json:"method"`
			}
			_ = json.Unmarshal(raw, &req)
			if req.Method == "eth_subscribe" {
				conn.reads <- []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"0xsub-%d"}`, id, id))
			}
		}
	}()

	subA, err := m.Subscribe(context.Background(), []interface{}{"newHeads"})
	require.NoError(t, err)
	subB, err := m.Subscribe(context.Background(), []interface{}{"logs"})
	require.NoError(t, err)
	require.NotEqual(t, subA.ID, subB.ID)

	conn.reads <- []byte(fmt.Sprintf(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":%q,"result":"A1"}}`, subA.ID))
	conn.reads <- []byte(fmt.Sprintf(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":%q,"result":"B1"}}`, subB.ID))
	conn.reads <- []byte(fmt.Sprintf(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":%q,"result":"A2"}}`, subA.ID))

	var gotA []string
	for i := 0; i < 2; i++ {
		select {
		case raw := <-subA.Notifications():
			gotA = append(gotA, string(raw))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for subA notification")
		}
	}
	var gotB string
	select {
	case raw := <-subB.Notifications():
		gotB = string(raw)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subB notification")
	}

	assert.Equal(t, []string{`"A1"`, `"A2"`}, gotA)
	assert.Equal(t, `"B1"`, gotB)
}

func TestListenerRestartsAfterExternalCancel(t *testing.T) {
	m, conn := newTestMultiplexer()
	go echoResult(conn)

	_, err := m.SendRequest(context.Background(), "eth_blockNumber", nil)
	require.NoError(t, err)

	// Simulate the listener dying (connection read failure): close the
	// read side so listenLoop's ReadFrame returns io.EOF and terminates.
	conn.Close()
	// Give the listener goroutine a moment to observe the closed
	// channel and mark itself not-running.
	time.Sleep(50 * time.Millisecond)

	// A fresh connection and responder for the restarted listener.
	conn2 := newFakeConn()
	m.holder.mu.Lock()
	m.holder.conn = nil
	m.holder.dial = func(ctx context.Context) (frameConn, error) { return conn2, nil }
	m.holder.mu.Unlock()
	go echoResult(conn2)

	raw, err := m.SendRequest(context.Background(), "eth_blockNumber", nil)
	require.NoError(t, err)
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.NotEmpty(t, s)
}
