package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/paygate/x402-gateway/types"
)

// Facilitator wire types. The remote service follows the x402
// facilitator REST shape: POST /verify and POST /settle with the
// payload/requirements pair, GET /supported for capability discovery.

type facilitatorRequest struct {
	X402Version         int                        `json:"x402Version"`
	PaymentPayload      *types.PaymentProof        `json:"paymentPayload"`
	PaymentRequirements *types.PaymentRequirements `json:"paymentRequirements"`
}

type supportedKind struct {
	X402Version int    `json:"x402Version"`
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
}

type supportedResponse struct {
	Kinds []supportedKind `json:"kinds"`
}

func (a *Adapter) remoteVerify(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (*types.VerificationOutcome, error) {
	var out types.VerificationOutcome
	if err := a.post(ctx, "/verify", proof, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Adapter) remoteSettle(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (*types.SettlementOutcome, error) {
	var out types.SettlementOutcome
	if err := a.post(ctx, "/settle", proof, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Adapter) probeSupported(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/supported", nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator returned status %d", resp.StatusCode)
	}
	var supported supportedResponse
	if err := json.NewDecoder(resp.Body).Decode(&supported); err != nil {
		return fmt.Errorf("decode supported kinds: %w", err)
	}
	a.log.Info("facilitator reachable", map[string]any{
		"kinds": len(supported.Kinds),
	})
	return nil
}

func (a *Adapter) post(ctx context.Context, path string, proof *types.PaymentProof, req *types.PaymentRequirements, out interface{}) error {
	body, err := json.Marshal(facilitatorRequest{
		X402Version:         types.X402Version,
		PaymentPayload:      proof,
		PaymentRequirements: req,
	})
	if err != nil {
		return fmt.Errorf("marshal facilitator request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build facilitator request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return &types.GatewayError{
			Code:    types.ErrFacilitatorFault,
			Message: fmt.Sprintf("facilitator call failed: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &types.GatewayError{
			Code:    types.ErrFacilitatorFault,
			Message: fmt.Sprintf("facilitator %s returned status %d", path, resp.StatusCode),
			Data:    string(payload),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &types.GatewayError{
			Code:    types.ErrFacilitatorFault,
			Message: fmt.Sprintf("decode facilitator response: %v", err),
		}
	}
	return nil
}
