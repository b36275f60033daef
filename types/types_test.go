package types

import "testing"

func TestNetworkChainID(t *testing.T) {
	tests := []struct {
		network Network
		chainID int64
		testnet bool
	}{
		{NetworkBase, 8453, false},
		{NetworkBaseSepolia, 84532, true},
		{NetworkPolygon, 137, false},
		{NetworkPolygonAmoy, 80002, true},
	}
	for _, tt := range tests {
		if got := tt.network.ChainID(); got != tt.chainID {
			t.Errorf("%s chain id = %d, want %d", tt.network, got, tt.chainID)
		}
		if got := tt.network.IsTestnet(); got != tt.testnet {
			t.Errorf("%s testnet = %v, want %v", tt.network, got, tt.testnet)
		}
		if !tt.network.IsEVM() {
			t.Errorf("%s not recognized as EVM", tt.network)
		}
	}
	if Network("solana").IsEVM() {
		t.Error("unknown network reported as EVM")
	}
	if Network("solana").ChainID() != 0 {
		t.Error("unknown network has a chain id")
	}
}

func TestPaymentRequirementsValidate(t *testing.T) {
	valid := PaymentRequirements{
		Scheme:            "exact",
		Network:           "base-sepolia",
		MaxAmountRequired: "10000",
		PayTo:             "0x384Aa214be0B279cbf211e9b2C992d8633F77848",
		MaxTimeoutSeconds: 300,
		Asset:             "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid requirements rejected: %v", err)
	}

	mutations := []func(*PaymentRequirements){
		func(r *PaymentRequirements) { r.Scheme = "" },
		func(r *PaymentRequirements) { r.Network = "" },
		func(r *PaymentRequirements) { r.MaxAmountRequired = "" },
		func(r *PaymentRequirements) { r.PayTo = "" },
		func(r *PaymentRequirements) { r.Asset = "" },
		func(r *PaymentRequirements) { r.MaxTimeoutSeconds = 0 },
	}
	for i, mutate := range mutations {
		r := valid
		mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("mutation %d accepted", i)
		}
	}
}

func TestPaymentProofValidate(t *testing.T) {
	valid := PaymentProof{
		X402Version: 1,
		Scheme:      "exact",
		Network:     "base-sepolia",
		Payload:     ExactEvmPayload{Signature: "0xabc"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}

	mutations := []func(*PaymentProof){
		func(p *PaymentProof) { p.X402Version = 0 },
		func(p *PaymentProof) { p.Scheme = "" },
		func(p *PaymentProof) { p.Network = "" },
		func(p *PaymentProof) { p.Payload.Signature = "" },
	}
	for i, mutate := range mutations {
		p := valid
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("mutation %d accepted", i)
		}
	}
}
