package transport

import "time"

// config holds the functional-option settings shared by every
// transport constructor, the way NewHTTPRPCClient/NewWebSocketRPCClient
// take explicit parameters rather than a global config struct.
type config struct {
	timeout time.Duration
	metrics Metrics
}

// Option configures a transport at construction time.
type Option func(*config)

// WithTimeout overrides the default per-call send_request deadline
// (60s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMetrics installs a Metrics observer; unset transports use
// NoopMetrics.
func WithMetrics(m Metrics) Option {
	return func(c *config) { c.metrics = m }
}

func applyOptions(opts []Option) config {
	cfg := config{timeout: DefaultTimeout, metrics: NoopMetrics{}}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
