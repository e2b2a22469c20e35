package utils

import (
	"fmt"
	"math/big"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// NativeDecimals is the decimal precision of the chain's native token.
const NativeDecimals = 18

// FormatWei renders a wei amount in whole tokens, e.g. "1.5 IP".
func FormatWei(wei *big.Int, symbol string) string {
	if wei == nil {
		wei = new(big.Int)
	}
	d := decimal.NewFromBigInt(wei, -NativeDecimals)
	return fmt.Sprintf("%s %s", d.String(), symbol)
}

// ParseWei parses a digit-only amount. Empty input yields fallback.
func ParseWei(s string, fallback *big.Int) (*big.Int, error) {
	if s == "" {
		if fallback == nil {
			return new(big.Int), nil
		}
		return new(big.Int).Set(fallback), nil
	}
	if !IsWei(s) {
		return nil, fmt.Errorf("amount %q is not a non-negative integer", s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a non-negative integer", s)
	}
	return v, nil
}

// Ether is 10^18 wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(NativeDecimals), nil))
}

// FormatBytes renders a byte count like "150 MiB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
