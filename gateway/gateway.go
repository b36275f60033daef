// Package gateway drives the payment challenge/verify/settle sequence
// for one resource request and classifies the result into exactly one
// terminal outcome.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/paygate/x402-gateway/backend"
	"github.com/paygate/x402-gateway/catalog"
	"github.com/paygate/x402-gateway/logger"
	"github.com/paygate/x402-gateway/metrics"
	"github.com/paygate/x402-gateway/types"
)

// Reasons carried by NotFound outcomes. The transport relies on these
// exact strings; they distinguish only vendor-vs-product absence.
const (
	ReasonVendorNotFound  = "Vendor not found"
	ReasonProductNotFound = "Product not found"
)

// Default placeholder reasons used when the backend supplies none.
const (
	defaultVerifyReason = "Payment verification failed"
	defaultSettleReason = "Payment settlement failed"
)

// Gateway is the request orchestrator. It is stateless across calls;
// many Process invocations may run concurrently against the same
// Gateway.
type Gateway struct {
	store catalog.Store
	port  backend.Port

	log        logger.Logger
	metrics    metrics.Recorder
	maxTimeout int
}

// New creates a gateway over a catalog and a payment backend.
func New(store catalog.Store, port backend.Port, opts ...Option) *Gateway {
	g := &Gateway{
		store:      store,
		port:       port,
		log:        logger.NoopLogger{},
		metrics:    metrics.NoopRecorder{},
		maxTimeout: types.DefaultMaxTimeoutSeconds,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Process runs the full payment sequence for one resource request.
//
// Every expected condition maps to an Outcome variant; the returned
// error is non-nil only for unexpected backend faults, which the
// transport maps to a generic server error. Settlement is attempted
// at most once, and only after verification succeeds.
func (g *Gateway) Process(ctx context.Context, vendorID, path, resourceURL, paymentHeader string) (types.Outcome, error) {
	start := time.Now()
	outcome, err := g.process(ctx, vendorID, path, resourceURL, paymentHeader)
	labels := map[string]string{"outcome": outcomeLabel(outcome, err)}
	g.metrics.IncCounter("requests", labels)
	g.metrics.ObserveLatency("process", time.Since(start), labels)
	return outcome, err
}

func (g *Gateway) process(ctx context.Context, vendorID, path, resourceURL, paymentHeader string) (types.Outcome, error) {
	vendor, err := g.store.FindVendor(ctx, vendorID)
	if err != nil {
		if err == catalog.ErrVendorNotFound {
			return types.NotFound{Reason: ReasonVendorNotFound}, nil
		}
		return nil, fmt.Errorf("vendor lookup: %w", err)
	}

	product, err := g.store.FindProduct(ctx, vendorID, path)
	if err != nil {
		if err == catalog.ErrProductNotFound {
			return types.NotFound{Reason: ReasonProductNotFound}, nil
		}
		return nil, fmt.Errorf("product lookup: %w", err)
	}

	resource := types.ResourceInfo{
		URL:         resourceURL,
		Description: product.Description,
		MimeType:    product.MimeType,
	}
	requirements, err := g.port.BuildPaymentRequirements(backend.ResourceConfig{
		Resource:          resource,
		Scheme:            string(types.SchemeExact),
		Network:           product.Network,
		Price:             product.Price,
		PayTo:             vendor.PayTo,
		MaxTimeoutSeconds: g.maxTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build payment requirements: %w", err)
	}

	if paymentHeader == "" {
		g.log.Debug("no payment proof supplied", map[string]any{
			"vendor": vendorID, "path": path,
		})
		return types.PaymentRequired{
			Challenge: g.port.CreatePaymentRequiredResponse(requirements, resource),
		}, nil
	}

	proof, err := g.port.ParsePaymentHeader(paymentHeader)
	if err != nil {
		// A header the backend cannot decode is treated as a failed
		// verification, not a server fault.
		g.log.Warn("payment header decode failed", map[string]any{
			"vendor": vendorID, "path": path, "error": err.Error(),
		})
		return types.VerificationFailed{Reason: err.Error()}, nil
	}

	matched, ok := g.port.FindMatchingRequirements(requirements, proof)
	if !ok {
		// Anti-downgrade guard: re-offer the current requirements,
		// never the client's stale claim.
		g.log.Debug("proof matches no current requirement", map[string]any{
			"vendor": vendorID, "path": path,
			"scheme": proof.Scheme, "network": proof.Network,
		})
		return types.PaymentRequired{
			Challenge: g.port.CreatePaymentRequiredResponse(requirements, resource),
		}, nil
	}

	verification, err := g.port.Verify(ctx, proof, matched)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if !verification.IsValid {
		reason := verification.InvalidReason
		if reason == "" {
			reason = defaultVerifyReason
		}
		g.log.Info("payment verification rejected", map[string]any{
			"vendor": vendorID, "path": path, "reason": reason,
		})
		return types.VerificationFailed{Reason: reason}, nil
	}

	settlement, err := g.port.Settle(ctx, proof, matched)
	if err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	if !settlement.Success {
		reason := settlement.ErrorReason
		if reason == "" {
			reason = defaultSettleReason
		}
		g.log.Info("payment settlement failed", map[string]any{
			"vendor": vendorID, "path": path, "reason": reason,
		})
		return types.SettlementFailed{Reason: reason}, nil
	}

	g.log.Info("payment settled", map[string]any{
		"vendor": vendorID, "path": path,
		"payer": verification.Payer, "tx": settlement.Transaction,
	})
	return types.Success{Settlement: settlement, Product: product}, nil
}

func outcomeLabel(outcome types.Outcome, err error) string {
	if err != nil {
		return "backend_fault"
	}
	switch outcome.(type) {
	case types.PaymentRequired:
		return "payment_required"
	case types.Success:
		return "success"
	case types.VerificationFailed:
		return "verification_failed"
	case types.SettlementFailed:
		return "settlement_failed"
	case types.NotFound:
		return "not_found"
	}
	return "unknown"
}
