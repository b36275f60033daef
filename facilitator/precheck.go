package facilitator

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/paygate/x402-gateway/types"
	"github.com/paygate/x402-gateway/utils"
)

// precheck validates the EIP-3009 authorization locally before the
// facilitator is consulted: time window, amount, payee, and signature
// recovery. Returns nil when the proof passes and the remote check
// should run. Skipped when chain metadata for the network is unknown.
func (a *Adapter) precheck(proof *types.PaymentProof, req *types.PaymentRequirements) *types.VerificationOutcome {
	network := types.Network(req.Network)
	asset, ok := a.assets[req.Network]
	if !ok || network.ChainID() == 0 {
		return nil
	}

	auth := proof.Payload.Authorization
	now := time.Now().Unix()

	validAfter, ok := new(big.Int).SetString(auth.ValidAfter, 10)
	if !ok {
		return invalid("authorization validAfter is not a number")
	}
	validBefore, ok := new(big.Int).SetString(auth.ValidBefore, 10)
	if !ok {
		return invalid("authorization validBefore is not a number")
	}
	if validAfter.Cmp(big.NewInt(now)) > 0 {
		return invalid("authorization is not valid yet")
	}
	if validBefore.Cmp(big.NewInt(now)) <= 0 {
		return invalid("authorization is expired")
	}

	value, ok := new(big.Int).SetString(auth.Value, 10)
	if !ok {
		return invalid("authorization value is not a number")
	}
	required, ok := new(big.Int).SetString(req.MaxAmountRequired, 10)
	if !ok {
		return invalid("requirement amount is not a number")
	}
	if value.Cmp(required) < 0 {
		return invalid("authorization value is less than the required amount")
	}

	if !utils.ValidateAddress(auth.From) || !utils.ValidateAddress(auth.To) {
		return invalid("authorization carries a malformed address")
	}
	if common.HexToAddress(auth.To) != common.HexToAddress(req.PayTo) {
		return invalid("authorization payee does not match required payTo address")
	}

	nonce, err := utils.DecodeNonce(auth.Nonce)
	if err != nil {
		return invalid(fmt.Sprintf("invalid nonce: %v", err))
	}

	signer, err := utils.RecoverAuthorizationSigner(
		utils.AuthorizationDomain{
			Name:              asset.Name,
			Version:           asset.Version,
			ChainID:           network.ChainID(),
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
		proof.Payload.Signature,
	)
	if err != nil {
		return invalid(fmt.Sprintf("signature recovery failed: %v", err))
	}
	if signer != common.HexToAddress(auth.From) {
		return invalid("Invalid signature")
	}

	return nil
}

func invalid(reason string) *types.VerificationOutcome {
	return &types.VerificationOutcome{IsValid: false, InvalidReason: reason}
}
