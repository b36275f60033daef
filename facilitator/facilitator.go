// Package facilitator adapts a remote x402 payment facilitator to the
// gateway's backend port. Requirement building and the header codec
// are local and pure; verification and settlement call out to the
// facilitator after a local authorization pre-check.
package facilitator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/paygate/x402-gateway/backend"
	"github.com/paygate/x402-gateway/logger"
	"github.com/paygate/x402-gateway/types"
	"github.com/paygate/x402-gateway/utils"
)

// AssetInfo describes the EIP-3009 asset payments settle in on one
// network, including its EIP-712 domain.
type AssetInfo struct {
	Address  string `json:"address" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Version  string `json:"version" validate:"required"`
	Decimals int    `json:"decimals" validate:"required"`
}

// DefaultAssets maps every supported network to its canonical USDC
// deployment.
func DefaultAssets() map[string]AssetInfo {
	return map[string]AssetInfo{
		types.NetworkBase.String():        {Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Name: "USD Coin", Version: "2", Decimals: 6},
		types.NetworkBaseSepolia.String(): {Address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Name: "USDC", Version: "2", Decimals: 6},
		types.NetworkPolygon.String():     {Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Name: "USD Coin", Version: "2", Decimals: 6},
		types.NetworkPolygonAmoy.String(): {Address: "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582", Name: "USDC", Version: "2", Decimals: 6},
	}
}

// Config configures the adapter.
type Config struct {
	// BaseURL of the remote facilitator, e.g. "https://x402.org/facilitator".
	BaseURL string `json:"baseUrl" validate:"required,url"`

	// Assets maps network id to asset metadata. Empty falls back to
	// DefaultAssets.
	Assets map[string]AssetInfo `json:"assets"`

	// Timeout bounds each facilitator call.
	Timeout time.Duration `json:"timeout"`

	// SettleCacheTTL bounds how long settled results are replayed for
	// identical proofs. Zero uses a 10 minute default.
	SettleCacheTTL time.Duration `json:"settleCacheTtl"`
}

// Adapter implements backend.Port over a remote facilitator.
type Adapter struct {
	baseURL string
	assets  map[string]AssetInfo
	client  *http.Client
	log     logger.Logger

	settles *settleCache
}

var _ backend.Port = (*Adapter)(nil)

// New creates an adapter. Init must be called before use.
func New(cfg Config, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.NoopLogger{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := cfg.SettleCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	assets := cfg.Assets
	if len(assets) == 0 {
		assets = DefaultAssets()
	}
	return &Adapter{
		baseURL: cfg.BaseURL,
		assets:  assets,
		client:  &http.Client{Timeout: timeout},
		log:     log,
		settles: newSettleCache(ttl),
	}
}

// Init validates configuration and probes the facilitator's supported
// payment kinds. Failure is fatal to server startup.
func (a *Adapter) Init(ctx context.Context) error {
	if a.baseURL == "" {
		return &types.GatewayError{
			Code:    types.ErrConfigError,
			Message: "facilitator base URL is required",
		}
	}
	for network, asset := range a.assets {
		if !utils.ValidateAddress(asset.Address) {
			return &types.GatewayError{
				Code:    types.ErrConfigError,
				Message: fmt.Sprintf("invalid asset address for network %s", network),
			}
		}
	}
	if err := a.probeSupported(ctx); err != nil {
		return fmt.Errorf("facilitator probe: %w", err)
	}
	return nil
}

// BuildPaymentRequirements derives the accepted payment methods for a
// resource. The list holds one exact-scheme requirement on the
// product's network.
func (a *Adapter) BuildPaymentRequirements(cfg backend.ResourceConfig) ([]types.PaymentRequirements, error) {
	asset, ok := a.assets[cfg.Network]
	if !ok {
		return nil, &types.GatewayError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("no asset configured for network %s", cfg.Network),
		}
	}

	amount, err := utils.PriceToAtomicUnits(cfg.Price, asset.Decimals)
	if err != nil {
		return nil, &types.GatewayError{
			Code:    types.ErrInvalidRequirements,
			Message: fmt.Sprintf("invalid price: %v", err),
		}
	}

	req := types.PaymentRequirements{
		Scheme:            cfg.Scheme,
		Network:           cfg.Network,
		MaxAmountRequired: amount,
		Resource:          cfg.Resource.URL,
		Description:       cfg.Resource.Description,
		MimeType:          cfg.Resource.MimeType,
		PayTo:             utils.NormalizeAddress(cfg.PayTo),
		MaxTimeoutSeconds: cfg.MaxTimeoutSeconds,
		Asset:             asset.Address,
		Extra: map[string]interface{}{
			"name":    asset.Name,
			"version": asset.Version,
		},
	}
	if err := req.Validate(); err != nil {
		return nil, &types.GatewayError{
			Code:    types.ErrInvalidRequirements,
			Message: err.Error(),
		}
	}
	return []types.PaymentRequirements{req}, nil
}

// CreatePaymentRequiredResponse assembles the challenge returned with
// a 402.
func (a *Adapter) CreatePaymentRequiredResponse(reqs []types.PaymentRequirements, _ types.ResourceInfo) *types.PaymentChallenge {
	return &types.PaymentChallenge{
		X402Version: types.X402Version,
		Accepts:     reqs,
	}
}

// FindMatchingRequirements selects the offered requirement whose
// scheme and network both equal the proof's claim. First match wins.
func (a *Adapter) FindMatchingRequirements(reqs []types.PaymentRequirements, proof *types.PaymentProof) (*types.PaymentRequirements, bool) {
	for i := range reqs {
		if reqs[i].Scheme == proof.Scheme && reqs[i].Network == proof.Network {
			return &reqs[i], true
		}
	}
	return nil, false
}

// Verify validates the proof against one requirement: a local
// authorization pre-check first, then the remote facilitator. The
// pre-check rejects cheaply before any network call.
func (a *Adapter) Verify(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (*types.VerificationOutcome, error) {
	if err := proof.Validate(); err != nil {
		return &types.VerificationOutcome{IsValid: false, InvalidReason: err.Error()}, nil
	}
	if proof.X402Version != types.X402Version {
		return &types.VerificationOutcome{
			IsValid:       false,
			InvalidReason: fmt.Sprintf("unsupported x402 version %d", proof.X402Version),
		}, nil
	}

	if outcome := a.precheck(proof, req); outcome != nil {
		return outcome, nil
	}

	return a.remoteVerify(ctx, proof, req)
}

// Settle executes a verified payment through the facilitator. Results
// for an identical proof are replayed from a short-lived cache so a
// client retry inside the settlement window does not broadcast twice.
func (a *Adapter) Settle(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (*types.SettlementOutcome, error) {
	key := settleKey(proof)
	return a.settles.do(ctx, key, func() (*types.SettlementOutcome, error) {
		return a.remoteSettle(ctx, proof, req)
	})
}
