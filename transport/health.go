package transport

import (
	"sync"
	"time"
)

// endpointHealth tracks one HTTP endpoint's circuit-breaker state,
// adapted from EndpointHealth (rpc/client.go) and SimpleHealthTracker
// (rpc/health.go) into an optional multi-endpoint failover mode.
type endpointHealth struct {
	consecutiveFailures  int
	consecutiveSuccesses int
	circuitOpen          bool
	openedAt             time.Time
}

// healthTracker implements round-robin endpoint selection with a
// simple consecutive-failure/-success circuit breaker.
type healthTracker struct {
	mu sync.Mutex

	state map[string]*endpointHealth
	next  int

	failureThreshold  int
	successThreshold  int
	circuitOpenWindow time.Duration
}

func newHealthTracker() *healthTracker {
	return &healthTracker{
		state:             make(map[string]*endpointHealth),
		failureThreshold:  3,
		successThreshold:  2,
		circuitOpenWindow: 30 * time.Second,
	}
}

func (h *healthTracker) get(endpoint string) *endpointHealth {
	eh, ok := h.state[endpoint]
	if !ok {
		eh = &endpointHealth{}
		h.state[endpoint] = eh
	}
	return eh
}

func (h *healthTracker) recordSuccess(endpoint string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	eh := h.get(endpoint)
	eh.consecutiveFailures = 0
	eh.consecutiveSuccesses++
	if eh.circuitOpen && eh.consecutiveSuccesses >= h.successThreshold {
		eh.circuitOpen = false
	}
}

func (h *healthTracker) recordFailure(endpoint string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	eh := h.get(endpoint)
	eh.consecutiveSuccesses = 0
	eh.consecutiveFailures++
	if eh.consecutiveFailures >= h.failureThreshold {
		eh.circuitOpen = true
		eh.openedAt = time.Now()
	}
}

func (h *healthTracker) isHealthy(endpoint string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	eh, ok := h.state[endpoint]
	if !ok || !eh.circuitOpen {
		return true
	}
	// Half-open: let one probe through after the window elapses.
	return time.Since(eh.openedAt) >= h.circuitOpenWindow
}

// orderedByHealth returns endpoints starting from the next round-robin
// position, healthy endpoints first, attempted in order so
// SendRequest's retry loop tries every endpoint at most once.
func (h *healthTracker) orderedByHealth(endpoints []string) []string {
	h.mu.Lock()
	start := h.next
	h.next = (h.next + 1) % len(endpoints)
	h.mu.Unlock()

	ordered := make([]string, 0, len(endpoints))
	rotated := make([]string, 0, len(endpoints))
	for i := range endpoints {
		rotated = append(rotated, endpoints[(start+i)%len(endpoints)])
	}
	for _, e := range rotated {
		if h.isHealthy(e) {
			ordered = append(ordered, e)
		}
	}
	for _, e := range rotated {
		if !h.isHealthy(e) {
			ordered = append(ordered, e)
		}
	}
	return ordered
}
