// Package backend declares the payment capability the gateway depends
// on. The gateway treats implementations as black boxes: how proofs
// are checked or transactions broadcast is the adapter's concern.
package backend

import (
	"context"

	"github.com/paygate/x402-gateway/types"
)

// ResourceConfig carries the product and vendor attributes an adapter
// needs to build payment requirements for one resource.
type ResourceConfig struct {
	Resource types.ResourceInfo

	// Scheme is fixed to the exact-amount scheme by the gateway.
	Scheme  string
	Network string

	// Price is the product's currency-prefixed decimal price string.
	Price string

	// PayTo is the vendor's payout address.
	PayTo string

	MaxTimeoutSeconds int
}

// Port is the payment backend capability. Implementations must be
// safe for concurrent use; the gateway invokes one Port across many
// parallel requests.
//
// Verify must not mutate any on-chain state. Settle may broadcast a
// transaction and is invoked at most once per successfully verified
// proof within one gateway request; idempotency across retried
// requests is the adapter's responsibility.
type Port interface {
	// Init performs one-time setup. Failure is fatal to startup.
	Init(ctx context.Context) error

	// BuildPaymentRequirements derives the canonical list of accepted
	// payment methods for a resource. Deterministic for identical
	// inputs; non-empty for a well-formed product.
	BuildPaymentRequirements(cfg ResourceConfig) ([]types.PaymentRequirements, error)

	// CreatePaymentRequiredResponse assembles a challenge from the
	// requirements and resource descriptor. Pure, no I/O.
	CreatePaymentRequiredResponse(reqs []types.PaymentRequirements, res types.ResourceInfo) *types.PaymentChallenge

	// ParsePaymentHeader decodes a client-controlled header value.
	// Malformed input yields a descriptive decode error, never a
	// partial structure.
	ParsePaymentHeader(encoded string) (*types.PaymentProof, error)

	// FindMatchingRequirements selects the requirement whose scheme
	// and network both equal the proof's claim. Returns false when no
	// offered requirement matches.
	FindMatchingRequirements(reqs []types.PaymentRequirements, proof *types.PaymentProof) (*types.PaymentRequirements, bool)

	// Verify validates the proof against one requirement.
	Verify(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (*types.VerificationOutcome, error)

	// Settle executes a verified payment.
	Settle(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (*types.SettlementOutcome, error)

	// EncodePaymentRequired serializes a challenge for the transport
	// boundary.
	EncodePaymentRequired(ch *types.PaymentChallenge) (string, error)

	// EncodeSettleResponse serializes a settlement outcome for the
	// transport boundary.
	EncodeSettleResponse(out *types.SettlementOutcome) (string, error)
}
