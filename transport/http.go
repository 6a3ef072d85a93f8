package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
)

// HTTPTransport issues one POST per request to a configured endpoint,
// the way HTTPRPCClient does (rpc/http.go), generalized from
// failover-by-default to an optional mode: the single-endpoint
// constructor is the default behavior, and NewHTTPTransportWithEndpoints layers
// round-robin + circuit-breaker failover on top as an additive
// supplement.
type HTTPTransport struct {
	endpoints []string
	health    *healthTracker

	client    *http.Client
	idCounter atomic.Uint64
	metrics   Metrics
	timeout   time.Duration
}

// NewHTTPTransport builds a single-endpoint HTTP transport. The
// *http.Client session is created once and held persistent; Close
// disposes of it.
func NewHTTPTransport(endpoint string, opts ...Option) *HTTPTransport {
	return newHTTPTransport([]string{endpoint}, nil, opts)
}

// NewHTTPTransportWithEndpoints builds a multi-endpoint HTTP transport
// with round-robin selection and circuit-breaker failover (adapted
// from RPCHealthTracker, rpc/health.go).
func NewHTTPTransportWithEndpoints(endpoints []string, opts ...Option) (*HTTPTransport, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("transport: at least one HTTP endpoint is required")
	}
	return newHTTPTransport(endpoints, newHealthTracker(), opts), nil
}

func newHTTPTransport(endpoints []string, health *healthTracker, opts []Option) *HTTPTransport {
	cfg := applyOptions(opts)
	return &HTTPTransport{
		endpoints: endpoints,
		health:    health,
		client:    &http.Client{Timeout: cfg.timeout},
		metrics:   cfg.metrics,
		timeout:   cfg.timeout,
	}
}

// SendRequest issues one POST carrying a single JSON-RPC envelope.
func (t *HTTPTransport) SendRequest(ctx context.Context, method string, params interface{}) (result json.RawMessage, err error) {
	start := time.Now()
	defer func() { t.metrics.ObserveCall(method, time.Since(start), err) }()

	id := t.idCounter.Add(1)
	req := ethtypes.NewRequest(id, method, params)
	payload, marshalErr := json.Marshal(req)
	if marshalErr != nil {
		return nil, ethrpc.ParseError(marshalErr, "encode request for %s", method)
	}

	deadlineCtx, cancel := withDeadline(ctx, t.timeout)
	defer cancel()

	var lastErr error
	for _, endpoint := range t.candidateEndpoints() {
		resp, callErr := t.post(deadlineCtx, endpoint, payload)
		if callErr == nil {
			if resp.Error != nil {
				return nil, ethrpc.ProtocolError(resp.Error, "rpc error for %s", method)
			}
			return resp.Result, nil
		}
		lastErr = callErr
		if t.health != nil {
			t.health.recordFailure(endpoint, callErr)
		}
	}
	return nil, ethrpc.TransportError(lastErr, "all HTTP endpoints failed for %s", method)
}

// SendBatch issues one POST carrying a JSON-RPC batch array, the
// teacher's CallBatch pattern (rpc/http.go callBatchEndpoint), carried
// as a supplement: §4.2 only describes one-request-per-POST, but the
// JSON-RPC spec permits batching over HTTP and go-ethereum's own
// client supports it.
func (t *HTTPTransport) SendBatch(ctx context.Context, methods []string, params []interface{}) ([]json.RawMessage, error) {
	if len(methods) != len(params) {
		return nil, fmt.Errorf("transport: methods and params must have equal length")
	}
	reqs := make([]ethtypes.Request, len(methods))
	for i := range methods {
		reqs[i] = ethtypes.NewRequest(t.idCounter.Add(1), methods[i], params[i])
	}
	payload, err := json.Marshal(reqs)
	if err != nil {
		return nil, ethrpc.ParseError(err, "encode batch request")
	}

	deadlineCtx, cancel := withDeadline(ctx, t.timeout)
	defer cancel()

	var lastErr error
	for _, endpoint := range t.candidateEndpoints() {
		responses, callErr := t.postBatch(deadlineCtx, endpoint, payload)
		if callErr == nil {
			results := make([]json.RawMessage, len(responses))
			for i, r := range responses {
				if r.Error == nil {
					results[i] = r.Result
				}
			}
			return results, nil
		}
		lastErr = callErr
		if t.health != nil {
			t.health.recordFailure(endpoint, callErr)
		}
	}
	return nil, ethrpc.TransportError(lastErr, "all HTTP endpoints failed for batch request")
}

// Subscribe is not supported by HTTP — always an explicit
// NotSupportedError, never an IPC fallback.
func (t *HTTPTransport) Subscribe(ctx context.Context, params interface{}) (*Subscription, error) {
	return nil, ethrpc.NotSupportedError("subscriptions are not supported over HTTP transport")
}

func (t *HTTPTransport) Unsubscribe(ctx context.Context, sub *Subscription) error {
	return ethrpc.NotSupportedError("subscriptions are not supported over HTTP transport")
}

// Close disposes of the persistent HTTP client's idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) candidateEndpoints() []string {
	if t.health == nil {
		return t.endpoints
	}
	return t.health.orderedByHealth(t.endpoints)
}

func (t *HTTPTransport) post(ctx context.Context, endpoint string, payload []byte) (*ethtypes.Response, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp ethtypes.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if t.health != nil {
		t.health.recordSuccess(endpoint, time.Since(start))
	}
	return &resp, nil
}

func (t *HTTPTransport) postBatch(ctx context.Context, endpoint string, payload []byte) ([]ethtypes.Response, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp []ethtypes.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse batch response: %w", err)
	}

	if t.health != nil {
		t.health.recordSuccess(endpoint, time.Since(start))
	}
	return resp, nil
}
