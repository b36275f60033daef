package types

// Network identifies a blockchain the gateway can price products on.
type Network string

const (
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia" // testnet
	NetworkPolygon     Network = "polygon"
	NetworkPolygonAmoy Network = "polygon-amoy" // testnet
)

// PaymentScheme identifies how an amount is interpreted.
type PaymentScheme string

const (
	SchemeExact PaymentScheme = "exact"
)

// IsEVM reports whether the network settles over an EVM chain. All
// currently supported networks do; the helper keeps call sites honest
// when more families are added.
func (n Network) IsEVM() bool {
	switch n {
	case NetworkBase, NetworkBaseSepolia, NetworkPolygon, NetworkPolygonAmoy:
		return true
	}
	return false
}

// IsTestnet reports whether payments on the network move test funds.
func (n Network) IsTestnet() bool {
	return n == NetworkBaseSepolia || n == NetworkPolygonAmoy
}

func (n Network) String() string {
	return string(n)
}

// ChainID returns the EVM chain id for the network, or 0 when unknown.
func (n Network) ChainID() int64 {
	switch n {
	case NetworkBase:
		return 8453
	case NetworkBaseSepolia:
		return 84532
	case NetworkPolygon:
		return 137
	case NetworkPolygonAmoy:
		return 80002
	}
	return 0
}

// SupportedNetworks lists every network products may be registered on.
func SupportedNetworks() []Network {
	return []Network{NetworkBase, NetworkBaseSepolia, NetworkPolygon, NetworkPolygonAmoy}
}
