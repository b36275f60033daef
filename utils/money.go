package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix is the marker every product price must carry.
const CurrencyPrefix = "$"

// ParsePrice validates a currency-prefixed decimal price string
// ("$0.01") and returns the decimal amount.
func ParsePrice(price string) (decimal.Decimal, error) {
	if !strings.HasPrefix(price, CurrencyPrefix) {
		return decimal.Decimal{}, fmt.Errorf("price must start with %q, got %q", CurrencyPrefix, price)
	}

	dec, err := decimal.NewFromString(strings.TrimPrefix(price, CurrencyPrefix))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price format: %w", err)
	}
	if !dec.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price must be positive, got %s", price)
	}
	return dec, nil
}

// PriceToAtomicUnits converts a currency-prefixed price string to the
// asset's atomic units ("$0.01" with 6 decimals -> "10000").
func PriceToAtomicUnits(price string, decimals int) (string, error) {
	dec, err := ParsePrice(price)
	if err != nil {
		return "", err
	}

	multiplier := decimal.NewFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	atomic := dec.Mul(multiplier)
	if !atomic.Equal(atomic.Truncate(0)) {
		return "", fmt.Errorf("price %s has more precision than %d decimals", price, decimals)
	}
	return atomic.BigInt().String(), nil
}

// FormatAtomicUnits renders an atomic-unit amount as a decimal string
// with the given precision.
func FormatAtomicUnits(amount *big.Int, decimals int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
