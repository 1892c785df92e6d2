package id

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

// MaxDecimals is the largest token precision the codec accepts. 10^77 is the
// largest power of ten that fits in a uint256.
const MaxDecimals = 77

// MaxRawBits bounds raw amounts to what an ABI uint256 can carry.
const MaxRawBits = 256

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ValidateDecimal checks the syntax of a decimal amount without knowing the
// token. A well-formed negative value is InvalidAmount; anything else that is
// not digits with an optional fraction is InvalidArguments.
func ValidateDecimal(value string) error {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "-") && decimalPattern.MatchString(value[1:]) {
		return clierr.New(clierr.CodeInvalidAmount, "amount must be positive")
	}
	if !decimalPattern.MatchString(value) {
		return clierr.New(clierr.CodeInvalidArguments, "amount must be a decimal string like 1.25")
	}
	return nil
}

// ToBaseUnits converts a decimal string into the token's smallest unit.
// Trailing fractional zeros are ignored; any remaining fractional digit beyond
// decimals is an InvalidAmount error, as is a result wider than uint256.
// Nothing is ever rounded.
func ToBaseUnits(value string, decimals uint8) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, clierr.New(clierr.CodeInvalidAmount, fmt.Sprintf("token decimals %d exceed supported maximum %d", decimals, MaxDecimals))
	}
	if err := ValidateDecimal(value); err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)

	intPart, fracPart, _ := strings.Cut(value, ".")
	fracPart = strings.TrimRight(fracPart, "0")
	if len(fracPart) > int(decimals) {
		return nil, clierr.New(clierr.CodeInvalidAmount, fmt.Sprintf("amount has %d fractional digits but the token supports %d", len(fracPart), decimals))
	}
	combined := intPart + fracPart + strings.Repeat("0", int(decimals)-len(fracPart))
	out, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, clierr.New(clierr.CodeInvalidArguments, "invalid decimal amount")
	}
	if out.BitLen() > MaxRawBits {
		return nil, clierr.New(clierr.CodeInvalidAmount, "amount exceeds the uint256 range")
	}
	return out, nil
}

// FormatBaseUnits renders a raw amount as an exact decimal string with
// trailing fractional zeros removed.
func FormatBaseUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	s := raw.String()
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if decimals > 0 {
		d := int(decimals)
		if len(s) <= d {
			s = strings.Repeat("0", d-len(s)+1) + s
		}
		intPart := s[:len(s)-d]
		fracPart := strings.TrimRight(s[len(s)-d:], "0")
		s = intPart
		if fracPart != "" {
			s = intPart + "." + fracPart
		}
	}
	if negative {
		return "-" + s
	}
	return s
}

// ToDecimal lifts a raw amount into an arbitrary-precision decimal.
func ToDecimal(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}
