package facilitator

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/paygate/x402-gateway/types"
)

// The x402 header codec: base64(std) over compact JSON. X-PAYMENT
// carries a proof inbound; X-PAYMENT-REQUIRED and X-PAYMENT-RESPONSE
// carry the challenge and settlement outbound.

// ParsePaymentHeader decodes an X-PAYMENT header value. Malformed
// input yields a decode error, never a partial proof.
func (a *Adapter) ParsePaymentHeader(encoded string) (*types.PaymentProof, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &types.GatewayError{
			Code:    types.ErrDecodeFailed,
			Message: fmt.Sprintf("payment header is not valid base64: %v", err),
		}
	}

	var proof types.PaymentProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, &types.GatewayError{
			Code:    types.ErrDecodeFailed,
			Message: fmt.Sprintf("payment header is not valid JSON: %v", err),
		}
	}
	if err := proof.Validate(); err != nil {
		return nil, &types.GatewayError{
			Code:    types.ErrDecodeFailed,
			Message: fmt.Sprintf("payment header is incomplete: %v", err),
		}
	}
	return &proof, nil
}

// EncodePaymentRequired serializes a challenge for the
// X-PAYMENT-REQUIRED header.
func (a *Adapter) EncodePaymentRequired(ch *types.PaymentChallenge) (string, error) {
	return encode(ch)
}

// EncodeSettleResponse serializes a settlement outcome for the
// X-PAYMENT-RESPONSE header.
func (a *Adapter) EncodeSettleResponse(out *types.SettlementOutcome) (string, error) {
	return encode(out)
}

func encode(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode header payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
