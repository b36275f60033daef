package types

import (
	"fmt"
)

// X402Version is the protocol version this gateway speaks.
const X402Version = 1

// DefaultMaxTimeoutSeconds is the settlement window offered to clients
// in every payment requirement built by the gateway.
const DefaultMaxTimeoutSeconds = 300

// PaymentRequirements defines one payment method the gateway accepts
// for a resource. A fresh list is built per request from the product
// and vendor; requirements are never persisted.
type PaymentRequirements struct {
	// Scheme of the payment protocol to use (e.g., "exact").
	Scheme string `json:"scheme"`

	// Network of the blockchain to send payment on (e.g., "base-sepolia").
	Network string `json:"network"`

	// Maximum amount required to pay for the resource in atomic units
	// of the asset. Represented as a string because Go does not support
	// uint256.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// URL of the resource to pay for.
	Resource string `json:"resource"`

	// Description of the resource being purchased.
	Description string `json:"description"`

	// MIME type of the resource response.
	MimeType string `json:"mimeType"`

	// Address to which the payment must be sent.
	PayTo string `json:"payTo"`

	// Maximum time in seconds for the resource server to respond.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`

	// Address of the EIP-3009 compliant ERC20 contract.
	Asset string `json:"asset"`

	// Extra information about payment details specific to the scheme.
	// For the `exact` scheme on EVM this carries the asset's EIP-712
	// domain `name` and `version`.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Validate checks that the requirements carry every field a client
// needs to construct a payment.
func (pr *PaymentRequirements) Validate() error {
	if pr.Scheme == "" {
		return fmt.Errorf("paymentRequirements.scheme is required")
	}
	if pr.Network == "" {
		return fmt.Errorf("paymentRequirements.network is required")
	}
	if pr.MaxAmountRequired == "" {
		return fmt.Errorf("paymentRequirements.maxAmountRequired is required")
	}
	if pr.PayTo == "" {
		return fmt.Errorf("paymentRequirements.payTo is required")
	}
	if pr.Asset == "" {
		return fmt.Errorf("paymentRequirements.asset is required")
	}
	if pr.MaxTimeoutSeconds <= 0 {
		return fmt.Errorf("paymentRequirements.maxTimeoutSeconds must be greater than 0")
	}
	return nil
}

// PaymentChallenge is the "payment required" descriptor returned to a
// client that presented no valid payment proof.
type PaymentChallenge struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version"`

	// Accepts lists the payment requirements the gateway accepts for
	// this resource, in preference order.
	Accepts []PaymentRequirements `json:"accepts"`

	// Error carries an optional processing message.
	Error string `json:"error,omitempty"`
}

// ResourceInfo describes the resource a challenge or proof refers to.
type ResourceInfo struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// PaymentProof is the client-supplied payment payload, decoded from
// the X-PAYMENT header. It is untrusted input; every field is the
// client's claim until verification passes.
type PaymentProof struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version"`

	// Scheme and Network identify which offered requirement the client
	// claims to satisfy. Matching is exact equality on both.
	Scheme  string `json:"scheme"`
	Network string `json:"network"`

	// Resource is the URL the client believes it is paying for.
	Resource string `json:"resource,omitempty"`

	// Payload carries the scheme-specific proof. For the exact scheme
	// on EVM this is an EIP-3009 authorization plus its signature.
	Payload ExactEvmPayload `json:"payload"`
}

// ExactEvmPayload is the exact-scheme proof blob: a signed EIP-3009
// TransferWithAuthorization.
type ExactEvmPayload struct {
	// Signature is the 65-byte ECDSA signature, hex encoded.
	Signature     string                `json:"signature"`
	Authorization ExactEvmAuthorization `json:"authorization"`
}

// ExactEvmAuthorization mirrors the EIP-3009 authorization message.
// Numeric fields are decimal strings because they are uint256 on chain.
type ExactEvmAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// Validate checks the structural shape of a decoded proof.
func (p *PaymentProof) Validate() error {
	if p.X402Version <= 0 {
		return fmt.Errorf("paymentProof.x402Version must be greater than 0")
	}
	if p.Scheme == "" {
		return fmt.Errorf("paymentProof.scheme is required")
	}
	if p.Network == "" {
		return fmt.Errorf("paymentProof.network is required")
	}
	if p.Payload.Signature == "" {
		return fmt.Errorf("paymentProof.payload.signature is required")
	}
	return nil
}

// VerificationOutcome is the result of validating a proof against one
// requirement. Verification never mutates on-chain state.
type VerificationOutcome struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettlementOutcome is the result of executing a verified payment.
type SettlementOutcome struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

// GatewayError is the value error used across the gateway for expected
// failure classes.
type GatewayError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *GatewayError) Error() string {
	return e.Message
}

// Common error codes.
const (
	ErrInvalidProof        = "INVALID_PROOF"
	ErrInvalidRequirements = "INVALID_REQUIREMENTS"
	ErrUnsupportedNetwork  = "UNSUPPORTED_NETWORK"
	ErrUnsupportedScheme   = "UNSUPPORTED_SCHEME"
	ErrDecodeFailed        = "DECODE_FAILED"
	ErrFacilitatorFault    = "FACILITATOR_FAULT"
	ErrConfigError         = "CONFIG_ERROR"
)
