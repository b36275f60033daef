package facilitator

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/paygate/x402-gateway/types"
	"github.com/paygate/x402-gateway/utils"
)

// signedProof builds a proof whose EIP-3009 authorization is genuinely
// signed by key under the base-sepolia USDC domain.
func signedProof(t *testing.T, key *ecdsa.PrivateKey, mutate func(*types.ExactEvmAuthorization)) *types.PaymentProof {
	t.Helper()

	from := crypto.PubkeyToAddress(key.PublicKey)
	now := time.Now().Unix()
	auth := types.ExactEvmAuthorization{
		From:        from.Hex(),
		To:          payTo,
		Value:       "10000",
		ValidAfter:  "0",
		ValidBefore: strconv.FormatInt(now+600, 10),
		Nonce:       "0x" + hex.EncodeToString(make([]byte, 32)),
	}
	if mutate != nil {
		mutate(&auth)
	}

	asset := DefaultAssets()["base-sepolia"]
	value, _ := new(big.Int).SetString(auth.Value, 10)
	validAfter, _ := new(big.Int).SetString(auth.ValidAfter, 10)
	validBefore, _ := new(big.Int).SetString(auth.ValidBefore, 10)
	// A mutated nonce may be undecodable; sign over zero then, the
	// pre-check rejects before signature recovery.
	nonce, _ := utils.DecodeNonce(auth.Nonce)

	// The signature commits to the authorization as the proof carries
	// it, mutations included.
	digest, err := utils.AuthorizationDigest(
		utils.AuthorizationDomain{
			Name:              asset.Name,
			Version:           asset.Version,
			ChainID:           types.NetworkBaseSepolia.ChainID(),
			VerifyingContract: asset.Address,
		},
		utils.TransferAuthorization{
			From:        common.HexToAddress(auth.From),
			To:          common.HexToAddress(auth.To),
			Value:       value,
			ValidAfter:  validAfter,
			ValidBefore: validBefore,
			Nonce:       nonce,
		},
	)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	return &types.PaymentProof{
		X402Version: types.X402Version,
		Scheme:      "exact",
		Network:     "base-sepolia",
		Payload: types.ExactEvmPayload{
			Signature:     "0x" + hex.EncodeToString(sig),
			Authorization: auth,
		},
	}
}

func requirementFor(amount string) *types.PaymentRequirements {
	return &types.PaymentRequirements{
		Scheme:            "exact",
		Network:           "base-sepolia",
		MaxAmountRequired: amount,
		PayTo:             payTo,
		MaxTimeoutSeconds: 300,
		Asset:             DefaultAssets()["base-sepolia"].Address,
	}
}

func TestPrecheckAcceptsValidAuthorization(t *testing.T) {
	key, _ := crypto.GenerateKey()
	a := newTestAdapter(t, "http://facilitator.test")

	proof := signedProof(t, key, nil)
	if out := a.precheck(proof, requirementFor("10000")); out != nil {
		t.Fatalf("valid authorization rejected: %s", out.InvalidReason)
	}
}

func TestPrecheckRejections(t *testing.T) {
	key, _ := crypto.GenerateKey()
	a := newTestAdapter(t, "http://facilitator.test")

	tests := []struct {
		name   string
		mutate func(*types.ExactEvmAuthorization)
		amount string
	}{
		{
			name: "expired",
			mutate: func(auth *types.ExactEvmAuthorization) {
				auth.ValidBefore = "1"
			},
			amount: "10000",
		},
		{
			name: "not valid yet",
			mutate: func(auth *types.ExactEvmAuthorization) {
				auth.ValidAfter = strconv.FormatInt(time.Now().Unix()+3600, 10)
			},
			amount: "10000",
		},
		{
			name:   "value below required amount",
			mutate: nil,
			amount: "20000",
		},
		{
			name: "wrong payee",
			mutate: func(auth *types.ExactEvmAuthorization) {
				auth.To = "0x0000000000000000000000000000000000000001"
			},
			amount: "10000",
		},
		{
			name: "malformed nonce",
			mutate: func(auth *types.ExactEvmAuthorization) {
				auth.Nonce = "0x01"
			},
			amount: "10000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proof := signedProof(t, key, tt.mutate)
			out := a.precheck(proof, requirementFor(tt.amount))
			if out == nil || out.IsValid {
				t.Fatal("bad authorization passed the pre-check")
			}
		})
	}
}

func TestPrecheckRejectsForgedSignature(t *testing.T) {
	signerKey, _ := crypto.GenerateKey()
	otherKey, _ := crypto.GenerateKey()
	a := newTestAdapter(t, "http://facilitator.test")

	// Signed by signerKey but claiming to be from otherKey's address.
	proof := signedProof(t, signerKey, func(auth *types.ExactEvmAuthorization) {
		auth.From = crypto.PubkeyToAddress(otherKey.PublicKey).Hex()
	})
	out := a.precheck(proof, requirementFor("10000"))
	if out == nil || out.IsValid {
		t.Fatal("forged signature passed the pre-check")
	}
	if out.InvalidReason != "Invalid signature" {
		t.Fatalf("reason = %q", out.InvalidReason)
	}
}

func TestPrecheckSkippedForUnknownNetwork(t *testing.T) {
	key, _ := crypto.GenerateKey()
	a := New(Config{
		BaseURL: "http://facilitator.test",
		Assets:  map[string]AssetInfo{"base": DefaultAssets()["base"]},
	}, nil)

	proof := signedProof(t, key, nil)
	req := requirementFor("10000")
	if out := a.precheck(proof, req); out != nil {
		t.Fatalf("pre-check ran without asset metadata: %+v", out)
	}
}
