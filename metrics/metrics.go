// Package metrics defines the instrumentation surface for payment flows.
package metrics

import "time"

// Recorder counts payment events and observes operation latency.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
