package gateway

import (
	"github.com/paygate/x402-gateway/logger"
	"github.com/paygate/x402-gateway/metrics"
)

type Option func(*Gateway)

func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		g.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(g *Gateway) {
		g.metrics = r
	}
}

// WithMaxTimeout overrides the settlement window, in seconds, passed
// into requirement construction.
func WithMaxTimeout(seconds int) Option {
	return func(g *Gateway) {
		if seconds > 0 {
			g.maxTimeout = seconds
		}
	}
}
