package metrics

import "time"

// NoopRecorder discards all events. Default when no recorder is
// injected.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}
