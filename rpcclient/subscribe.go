package rpcclient

import (
	"context"
	"encoding/json"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
	"github.com/desktable/aioweb3/transport"
)

// Subscription wraps a transport.Subscription and decodes each
// notification payload into T, the typed shape for one of the four
// subscription kinds this client exposes.
type Subscription[T any] struct {
	raw *transport.Subscription
	sub transport.Subscriber
}

// Next blocks until the next notification arrives, ctx is done, or the
// subscription's queue is closed.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case payload, ok := <-s.raw.Notifications():
		if !ok {
			return zero, ethrpc.TransportError(nil, "subscription closed")
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return zero, ethrpc.ParseError(err, "decode subscription payload")
		}
		return v, nil
	case <-ctx.Done():
		return zero, ethrpc.TimeoutError(ctx.Err(), "subscription wait cancelled")
	}
}

// Unsubscribe invokes eth_unsubscribe and releases the queue.
func (s *Subscription[T]) Unsubscribe(ctx context.Context) error {
	return s.sub.Unsubscribe(ctx, s.raw)
}

func (c *Client) subscriber() (transport.Subscriber, error) {
	sub, ok := transport.CanSubscribe(c.t)
	if !ok {
		return nil, ethrpc.NotSupportedError("transport does not support subscriptions")
	}
	return sub, nil
}

func subscribeTyped[T any](ctx context.Context, c *Client, params interface{}) (*Subscription[T], error) {
	sub, err := c.subscriber()
	if err != nil {
		return nil, err
	}
	raw, err := sub.Subscribe(ctx, params)
	if err != nil {
		return nil, err
	}
	return &Subscription[T]{raw: raw, sub: sub}, nil
}

// SubscribeNewHeads subscribes to eth_subscribe("newHeads"): one
// notification per new chain head.
func (c *Client) SubscribeNewHeads(ctx context.Context) (*Subscription[ethtypes.NewHead], error) {
	return subscribeTyped[ethtypes.NewHead](ctx, c, []interface{}{"newHeads"})
}

// SyncStatus is the payload of an eth_subscribe("syncing") update: a
// bare `false` when fully synced, or an object describing sync
// progress. Either shape is decoded into this struct; the block fields
// are set only when the object form carries them.
type SyncStatus struct {
	Syncing     bool
	StartingBlock *uint64
	CurrentBlock  *uint64
	HighestBlock  *uint64
}

// UnmarshalJSON accepts either a bare boolean or a sync-progress
// object, per the geth eth_subscribe("syncing") payload shape.
func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = SyncStatus{Syncing: b}
		return nil
	}
	var obj struct {
		StartingBlock string `json:"startingBlock"`
		CurrentBlock  string `json:"currentBlock"`
		HighestBlock  string `json:"highestBlock"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.Syncing = true
	if n, err := ethtypes.HexUint64(obj.StartingBlock); err == nil {
		s.StartingBlock = &n
	}
	if n, err := ethtypes.HexUint64(obj.CurrentBlock); err == nil {
		s.CurrentBlock = &n
	}
	if n, err := ethtypes.HexUint64(obj.HighestBlock); err == nil {
		s.HighestBlock = &n
	}
	return nil
}

// SubscribeSyncing subscribes to eth_subscribe("syncing").
func (c *Client) SubscribeSyncing(ctx context.Context) (*Subscription[SyncStatus], error) {
	return subscribeTyped[SyncStatus](ctx, c, []interface{}{"syncing"})
}

// SubscribeNewPendingTransactions subscribes to
// eth_subscribe("newPendingTransactions"): one notification carrying a
// transaction hash per newly seen pending transaction.
func (c *Client) SubscribeNewPendingTransactions(ctx context.Context) (*Subscription[ethtypes.Hash], error) {
	return subscribeTyped[ethtypes.Hash](ctx, c, []interface{}{"newPendingTransactions"})
}

// SubscribeLogs subscribes to eth_subscribe("logs", filter), with an
// optional address/topics filter. Pass a zero-value FilterSpec to match
// every log.
func (c *Client) SubscribeLogs(ctx context.Context, filter ethtypes.FilterSpec) (*Subscription[ethtypes.LogData], error) {
	return subscribeTyped[ethtypes.LogData](ctx, c, []interface{}{"logs", filter})
}
