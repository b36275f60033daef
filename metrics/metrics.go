// Package metrics is the instrumentation port for the gateway. The
// orchestrator records request counts and latencies per outcome class
// through a Recorder.
package metrics

import "time"

// Recorder receives gateway instrumentation events.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
