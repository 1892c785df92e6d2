// Package contracts packs calldata and decodes return data for the contract
// methods the quoting engine touches.
package contracts

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
)

var (
	ERC20               = mustABI(registry.ERC20ABI)
	ERC20Bytes32Symbol  = mustABI(registry.ERC20Bytes32SymbolABI)
	UniswapV2Router     = mustABI(registry.UniswapV2RouterABI)
	UniswapV2Factory    = mustABI(registry.UniswapV2FactoryABI)
	UniswapV2Pair       = mustABI(registry.UniswapV2PairABI)
	ChainlinkAggregator = mustABI(registry.ChainlinkAggregatorV3ABI)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

func unpackOne[T any](contract abi.ABI, method string, data []byte) (T, error) {
	var zero T
	decoded, err := contract.Unpack(method, data)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", method, err)
	}
	if len(decoded) == 0 {
		return zero, fmt.Errorf("decode %s: empty response", method)
	}
	value, ok := decoded[0].(T)
	if !ok {
		return zero, fmt.Errorf("decode %s: unexpected type %T", method, decoded[0])
	}
	return value, nil
}

func PackBalanceOf(owner common.Address) ([]byte, error) {
	return ERC20.Pack("balanceOf", owner)
}

func UnpackBalanceOf(data []byte) (*big.Int, error) {
	return unpackOne[*big.Int](ERC20, "balanceOf", data)
}

func PackDecimals() ([]byte, error) {
	return ERC20.Pack("decimals")
}

func UnpackDecimals(data []byte) (uint8, error) {
	return unpackOne[uint8](ERC20, "decimals", data)
}

func PackSymbol() ([]byte, error) {
	return ERC20.Pack("symbol")
}

// UnpackSymbol decodes a string symbol, falling back to the bytes32 layout.
func UnpackSymbol(data []byte) (string, error) {
	if symbol, err := unpackOne[string](ERC20, "symbol", data); err == nil {
		return symbol, nil
	}
	raw, err := unpackOne[[32]byte](ERC20Bytes32Symbol, "symbol", data)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(raw[:], "\x00")), nil
}
