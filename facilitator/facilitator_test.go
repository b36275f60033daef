package facilitator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paygate/x402-gateway/backend"
	"github.com/paygate/x402-gateway/types"
)

const payTo = "0x384Aa214be0B279cbf211e9b2C992d8633F77848"

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	return New(Config{BaseURL: baseURL}, nil)
}

func TestBuildPaymentRequirements(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")

	reqs, err := a.BuildPaymentRequirements(backend.ResourceConfig{
		Resource:          types.ResourceInfo{URL: "http://x/resources/v/p", Description: "weather", MimeType: "application/json"},
		Scheme:            "exact",
		Network:           "base-sepolia",
		Price:             "$0.01",
		PayTo:             payTo,
		MaxTimeoutSeconds: 300,
	})
	if err != nil {
		t.Fatalf("BuildPaymentRequirements: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("got %d requirements, want 1", len(reqs))
	}
	req := reqs[0]
	if req.MaxAmountRequired != "10000" {
		t.Fatalf("amount = %s, want 10000 (USDC atomic units)", req.MaxAmountRequired)
	}
	if req.Asset != DefaultAssets()["base-sepolia"].Address {
		t.Fatalf("asset = %s", req.Asset)
	}
	if req.PayTo != payTo {
		t.Fatalf("payTo = %s", req.PayTo)
	}
	if req.Extra["name"] != "USDC" || req.Extra["version"] != "2" {
		t.Fatalf("extra = %+v", req.Extra)
	}
}

func TestBuildPaymentRequirementsUnknownNetwork(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")

	_, err := a.BuildPaymentRequirements(backend.ResourceConfig{
		Resource:          types.ResourceInfo{URL: "http://x/r"},
		Scheme:            "exact",
		Network:           "solana",
		Price:             "$0.01",
		PayTo:             payTo,
		MaxTimeoutSeconds: 300,
	})
	gwErr, ok := err.(*types.GatewayError)
	if !ok || gwErr.Code != types.ErrUnsupportedNetwork {
		t.Fatalf("err = %v, want UNSUPPORTED_NETWORK", err)
	}
}

func TestFindMatchingRequirements(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")
	reqs := []types.PaymentRequirements{
		{Scheme: "exact", Network: "base"},
		{Scheme: "exact", Network: "base-sepolia"},
	}

	proof := &types.PaymentProof{Scheme: "exact", Network: "base-sepolia"}
	matched, ok := a.FindMatchingRequirements(reqs, proof)
	if !ok || matched.Network != "base-sepolia" {
		t.Fatalf("matched = %+v ok = %v", matched, ok)
	}

	proof.Network = "polygon"
	if _, ok := a.FindMatchingRequirements(reqs, proof); ok {
		t.Fatal("matched a requirement for an unoffered network")
	}

	proof.Network = "base"
	proof.Scheme = "upto"
	if _, ok := a.FindMatchingRequirements(reqs, proof); ok {
		t.Fatal("matched a requirement for an unoffered scheme")
	}
}

func TestParsePaymentHeader(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")

	proof := types.PaymentProof{
		X402Version: 1,
		Scheme:      "exact",
		Network:     "base-sepolia",
		Payload:     types.ExactEvmPayload{Signature: "0xabc"},
	}
	raw, _ := json.Marshal(proof)
	encoded := base64.StdEncoding.EncodeToString(raw)

	decoded, err := a.ParsePaymentHeader(encoded)
	if err != nil {
		t.Fatalf("ParsePaymentHeader: %v", err)
	}
	if decoded.Scheme != "exact" || decoded.Network != "base-sepolia" {
		t.Fatalf("decoded = %+v", decoded)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "not base64", header: "!!!not-base64!!!"},
		{name: "not json", header: base64.StdEncoding.EncodeToString([]byte("not json"))},
		{name: "incomplete", header: base64.StdEncoding.EncodeToString([]byte(`{"x402Version":1}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ParsePaymentHeader(tt.header)
			gwErr, ok := err.(*types.GatewayError)
			if !ok || gwErr.Code != types.ErrDecodeFailed {
				t.Fatalf("err = %v, want DECODE_FAILED", err)
			}
		})
	}
}

func TestHeaderEncodeRoundTrip(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")

	challenge := &types.PaymentChallenge{
		X402Version: 1,
		Accepts:     []types.PaymentRequirements{{Scheme: "exact", Network: "base"}},
	}
	encoded, err := a.EncodePaymentRequired(challenge)
	if err != nil {
		t.Fatalf("EncodePaymentRequired: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("header is not base64: %v", err)
	}
	var back types.PaymentChallenge
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("header is not JSON: %v", err)
	}
	if len(back.Accepts) != 1 || back.Accepts[0].Network != "base" {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestInitProbesFacilitator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/supported" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(supportedResponse{Kinds: []supportedKind{
			{X402Version: 1, Scheme: "exact", Network: "base-sepolia"},
		}})
	}))
	defer ts.Close()

	a := newTestAdapter(t, ts.URL)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func TestInitFailsOnUnreachableFacilitator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := newTestAdapter(t, ts.URL)
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("Init succeeded against a broken facilitator")
	}
}

func TestInitRejectsBadAssetAddress(t *testing.T) {
	a := New(Config{
		BaseURL: "http://facilitator.test",
		Assets:  map[string]AssetInfo{"base": {Address: "junk", Name: "USDC", Version: "2", Decimals: 6}},
	}, nil)
	err := a.Init(context.Background())
	gwErr, ok := err.(*types.GatewayError)
	if !ok || gwErr.Code != types.ErrConfigError {
		t.Fatalf("err = %v, want CONFIG_ERROR", err)
	}
}

func TestVerifyRejectsStructurallyInvalidProof(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")

	out, err := a.Verify(context.Background(), &types.PaymentProof{}, &types.PaymentRequirements{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.IsValid {
		t.Fatal("empty proof verified")
	}
}

func TestVerifyRejectsWrongProtocolVersion(t *testing.T) {
	a := newTestAdapter(t, "http://facilitator.test")

	proof := &types.PaymentProof{
		X402Version: 99,
		Scheme:      "exact",
		Network:     "base-sepolia",
		Payload:     types.ExactEvmPayload{Signature: "0xabc"},
	}
	out, err := a.Verify(context.Background(), proof, &types.PaymentRequirements{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.IsValid {
		t.Fatal("wrong protocol version verified")
	}
}

func TestVerifyDelegatesToFacilitator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			http.NotFound(w, r)
			return
		}
		var req facilitatorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode facilitator request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(types.VerificationOutcome{IsValid: true, Payer: "0xpayer"})
	}))
	defer ts.Close()

	// No asset metadata for the proof's network, so the local pre-check
	// is skipped and the remote answer decides.
	a := New(Config{
		BaseURL: ts.URL,
		Assets:  map[string]AssetInfo{"base": DefaultAssets()["base"]},
	}, nil)

	proof := &types.PaymentProof{
		X402Version: 1,
		Scheme:      "exact",
		Network:     "base-sepolia",
		Payload:     types.ExactEvmPayload{Signature: "0xabc"},
	}
	out, err := a.Verify(context.Background(), proof, &types.PaymentRequirements{Network: "base-sepolia"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !out.IsValid || out.Payer != "0xpayer" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestVerifyFacilitatorErrorIsFault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	a := New(Config{
		BaseURL: ts.URL,
		Assets:  map[string]AssetInfo{"base": DefaultAssets()["base"]},
	}, nil)

	proof := &types.PaymentProof{
		X402Version: 1,
		Scheme:      "exact",
		Network:     "base-sepolia",
		Payload:     types.ExactEvmPayload{Signature: "0xabc"},
	}
	_, err := a.Verify(context.Background(), proof, &types.PaymentRequirements{Network: "base-sepolia"})
	gwErr, ok := err.(*types.GatewayError)
	if !ok || gwErr.Code != types.ErrFacilitatorFault {
		t.Fatalf("err = %v, want FACILITATOR_FAULT", err)
	}
}
