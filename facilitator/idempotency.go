package facilitator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/paygate/x402-gateway/types"
)

// settleCache deduplicates settlement of identical proofs inside the
// pending-confirmation window, before chain-level nonce protection
// applies. Successful settlements are replayed for the TTL; failures
// are not cached so legitimate retries can proceed.
type settleCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	results map[string]settleEntry
	pending map[string]chan struct{}
}

type settleEntry struct {
	outcome   *types.SettlementOutcome
	expiresAt time.Time
}

func newSettleCache(ttl time.Duration) *settleCache {
	return &settleCache{
		ttl:     ttl,
		results: make(map[string]settleEntry),
		pending: make(map[string]chan struct{}),
	}
}

// settleKey derives the dedup key from the proof's signature, which
// commits to the full authorization.
func settleKey(proof *types.PaymentProof) string {
	sum := sha256.Sum256([]byte(proof.Payload.Signature))
	return hex.EncodeToString(sum[:])
}

// do runs fn once per key. Concurrent callers with the same key wait
// for the in-flight settlement and share its result; later callers
// within the TTL get the cached outcome without another broadcast.
func (c *settleCache) do(ctx context.Context, key string, fn func() (*types.SettlementOutcome, error)) (*types.SettlementOutcome, error) {
	for {
		c.mu.Lock()
		if entry, ok := c.results[key]; ok && time.Now().Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.outcome, nil
		}
		wait, inflight := c.pending[key]
		if !inflight {
			done := make(chan struct{})
			c.pending[key] = done
			c.mu.Unlock()

			outcome, err := fn()

			c.mu.Lock()
			delete(c.pending, key)
			if err == nil && outcome != nil && outcome.Success {
				c.results[key] = settleEntry{outcome: outcome, expiresAt: time.Now().Add(c.ttl)}
			}
			c.sweepLocked()
			c.mu.Unlock()
			close(done)
			return outcome, err
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

// sweepLocked drops expired entries; called with mu held.
func (c *settleCache) sweepLocked() {
	now := time.Now()
	for k, e := range c.results {
		if now.After(e.expiresAt) {
			delete(c.results, k)
		}
	}
}
