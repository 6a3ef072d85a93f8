package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// BatchRequest is one call to submit as part of a batch: a method name
// paired with its already-hex-encoded params.
type BatchRequest struct {
	Method string
	Params interface{}
}

// batcher is implemented by transports that can submit many requests in
// one round trip; currently only transport.HTTPTransport.
type batcher interface {
	SendBatch(ctx context.Context, methods []string, params []interface{}) ([]json.RawMessage, error)
}

// BatchCall issues every request in reqs as a single batch (the
// teacher's CallBatch pattern, rpc/http.go callBatchEndpoint), returning
// one raw result per request in the same order. Transports that don't
// support batching fail fast rather than silently degrading to N
// sequential calls.
func (c *Client) BatchCall(ctx context.Context, reqs []BatchRequest) ([]json.RawMessage, error) {
	b, ok := c.t.(batcher)
	if !ok {
		return nil, fmt.Errorf("rpcclient: underlying transport %T does not support batching", c.t)
	}

	methods := make([]string, len(reqs))
	params := make([]interface{}, len(reqs))
	for i, r := range reqs {
		methods[i] = r.Method
		params[i] = r.Params
	}
	return b.SendBatch(ctx, methods, params)
}
