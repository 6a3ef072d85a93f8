package transport

import "time"

// Metrics observes RPC call outcomes without coupling the transport to
// a specific backend, adapted from the MetricsRPCClient wrapper
// (rpc/metrics_client.go) into a plain hook interface instead of a
// decorator, so every transport gets it for free.
type Metrics interface {
	ObserveCall(method string, duration time.Duration, err error)
}

// NoopMetrics discards every observation; it is the default for every
// transport constructor.
type NoopMetrics struct{}

func (NoopMetrics) ObserveCall(string, time.Duration, error) {}
