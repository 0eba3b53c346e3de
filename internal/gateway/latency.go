package gateway

import (
	"sync"
	"time"

	"github.com/VividCortex/ewma"
)

// maxSamples bounds the raw latency history kept for sparklines.
const maxSamples = 60

// LatencyTracker keeps a smoothed latency per operation and a short history
// of raw samples across all operations.
type LatencyTracker struct {
	mu      sync.Mutex
	avg     map[Op]ewma.MovingAverage
	samples []float64
}

// NewLatencyTracker creates an empty tracker.
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{
		avg: make(map[Op]ewma.MovingAverage),
	}
}

// Observe records one request duration.
func (t *LatencyTracker) Observe(op Op, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.avg[op]
	if !ok {
		a = ewma.NewMovingAverage()
		t.avg[op] = a
	}
	a.Add(ms)

	t.samples = append(t.samples, ms)
	if len(t.samples) > maxSamples {
		t.samples = t.samples[len(t.samples)-maxSamples:]
	}
}

// Average returns the smoothed latency of op, or 0 when op was never seen.
func (t *LatencyTracker) Average(op Op) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.avg[op]
	if !ok {
		return 0
	}
	return time.Duration(a.Value() * float64(time.Millisecond))
}

// Samples returns recent raw latencies in milliseconds, oldest first.
func (t *LatencyTracker) Samples() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.samples...)
}
