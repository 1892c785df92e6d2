package id

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NativeAddress is the all-zero address. Token-bearing fields use it to mean
// the chain's native asset.
var NativeAddress = common.Address{}

// ParseAddress decodes a 0x-prefixed 20-byte hex address. Mixed-case input must
// carry a valid EIP-55 checksum.
func ParseAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, clierr.New(clierr.CodeInvalidArguments, "address is required")
	}
	if !evmAddressPattern.MatchString(value) {
		return common.Address{}, clierr.New(clierr.CodeInvalidArguments, "address must be 0x followed by 40 hex characters")
	}
	addr := common.HexToAddress(value)
	hexPart := value[2:]
	if hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart) {
		if addr.Hex()[2:] != hexPart {
			return common.Address{}, clierr.New(clierr.CodeInvalidArguments, "address has an invalid EIP-55 checksum")
		}
	}
	return addr, nil
}

// IsNative reports whether addr denotes the native asset.
func IsNative(addr common.Address) bool {
	return addr == NativeAddress
}
