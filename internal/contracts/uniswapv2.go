package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func PackGetAmountsOut(amountIn *big.Int, path []common.Address) ([]byte, error) {
	return UniswapV2Router.Pack("getAmountsOut", amountIn, path)
}

// UnpackGetAmountsOut returns the per-hop amounts; the last entry is the
// output of the full path.
func UnpackGetAmountsOut(data []byte) ([]*big.Int, error) {
	return unpackOne[[]*big.Int](UniswapV2Router, "getAmountsOut", data)
}

func PackSwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return UniswapV2Router.Pack("swapExactETHForTokens", amountOutMin, path, to, deadline)
}

func PackSwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return UniswapV2Router.Pack("swapExactTokensForETH", amountIn, amountOutMin, path, to, deadline)
}

func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return UniswapV2Router.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}

func PackGetPair(tokenA, tokenB common.Address) ([]byte, error) {
	return UniswapV2Factory.Pack("getPair", tokenA, tokenB)
}

func UnpackGetPair(data []byte) (common.Address, error) {
	return unpackOne[common.Address](UniswapV2Factory, "getPair", data)
}

func PackGetReserves() ([]byte, error) {
	return UniswapV2Pair.Pack("getReserves")
}

func UnpackGetReserves(data []byte) (reserve0, reserve1 *big.Int, err error) {
	decoded, err := UniswapV2Pair.Unpack("getReserves", data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode getReserves: %w", err)
	}
	if len(decoded) != 3 {
		return nil, nil, fmt.Errorf("decode getReserves: expected 3 values, got %d", len(decoded))
	}
	r0, ok0 := decoded[0].(*big.Int)
	r1, ok1 := decoded[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, nil, fmt.Errorf("decode getReserves: unexpected types %T, %T", decoded[0], decoded[1])
	}
	return r0, r1, nil
}

func PackToken0() ([]byte, error) {
	return UniswapV2Pair.Pack("token0")
}

func UnpackToken0(data []byte) (common.Address, error) {
	return unpackOne[common.Address](UniswapV2Pair, "token0", data)
}
