package metrics

import "time"

// Recorder receives negotiation outcome counts and per-attempt latency.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
