package uniswapv2

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain"
	"github.com/ggonzalez94/eth-trading-mcp/internal/contracts"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
)

const wrappedNativeDecimals = 18

// ReserveSource derives prices from UniswapV2 pool reserves. The token is
// priced against the wrapped native token, and the wrapped native token is
// priced against the registry's reference stablecoin.
type ReserveSource struct {
	chain     chain.Reader
	contracts registry.ChainContracts
}

func NewReserveSource(reader chain.Reader, contracts registry.ChainContracts) *ReserveSource {
	return &ReserveSource{chain: reader, contracts: contracts}
}

func (s *ReserveSource) Info() providers.ProviderInfo {
	return providers.ProviderInfo{
		Name:        "uniswap-v2-reserves",
		Type:        "dex-pool",
		Description: "Spot price implied by UniswapV2 pair reserves",
	}
}

func (s *ReserveSource) Source() model.PriceSource {
	return model.SourceDexPoolReserves
}

func (s *ReserveSource) Price(ctx context.Context, token model.TokenDescriptor) (providers.Price, error) {
	if s.contracts.IsZero() {
		return providers.Price{}, clierr.New(clierr.CodeUnsupportedChain, "no uniswap-v2 deployment registered for this chain")
	}
	weth := s.contracts.WrappedNative

	priceETH := decimal.NewFromInt(1)
	if !id.IsNative(token.Address) && token.Address != weth {
		p, err := s.spot(ctx, token.Address, token.Decimals, weth, wrappedNativeDecimals)
		if err != nil {
			return providers.Price{}, err
		}
		priceETH = p
	}
	ethUSD, err := s.spot(ctx, weth, wrappedNativeDecimals, s.contracts.ReferenceStable, s.contracts.ReferenceStableDecimals)
	if err != nil {
		return providers.Price{}, err
	}
	return providers.Price{
		USD: priceETH.Mul(ethUSD).Round(providers.PriceScale),
		ETH: priceETH,
	}, nil
}

// spot returns the price of one whole base token in quote tokens.
func (s *ReserveSource) spot(ctx context.Context, base common.Address, baseDecimals uint8, quote common.Address, quoteDecimals uint8) (decimal.Decimal, error) {
	pair, err := s.pair(ctx, base, quote)
	if err != nil {
		return decimal.Zero, err
	}

	callData, err := contracts.PackGetReserves()
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeInternal, "pack getReserves", err)
	}
	out, err := s.chain.Call(ctx, pair, callData)
	if err != nil {
		return decimal.Zero, err
	}
	reserve0, reserve1, err := contracts.UnpackGetReserves(out)
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeRPC, "pair returned undecodable reserves", err)
	}

	callData, err = contracts.PackToken0()
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeInternal, "pack token0", err)
	}
	out, err = s.chain.Call(ctx, pair, callData)
	if err != nil {
		return decimal.Zero, err
	}
	token0, err := contracts.UnpackToken0(out)
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeRPC, "pair returned undecodable token0", err)
	}

	baseReserve, quoteReserve := reserve0, reserve1
	if token0 != base {
		baseReserve, quoteReserve = reserve1, reserve0
	}
	if baseReserve.Sign() == 0 || quoteReserve.Sign() == 0 {
		return decimal.Zero, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("pool %s has no liquidity", pair.Hex()))
	}
	return id.ToDecimal(quoteReserve, quoteDecimals).DivRound(id.ToDecimal(baseReserve, baseDecimals), providers.PriceScale), nil
}

func (s *ReserveSource) pair(ctx context.Context, a, b common.Address) (common.Address, error) {
	callData, err := contracts.PackGetPair(a, b)
	if err != nil {
		return common.Address{}, clierr.Wrap(clierr.CodeInternal, "pack getPair", err)
	}
	out, err := s.chain.Call(ctx, s.contracts.UniswapV2Factory, callData)
	if err != nil {
		return common.Address{}, err
	}
	pair, err := contracts.UnpackGetPair(out)
	if err != nil {
		return common.Address{}, clierr.Wrap(clierr.CodeRPC, "factory returned undecodable pair", err)
	}
	if pair == (common.Address{}) {
		return common.Address{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("no uniswap-v2 pool for %s/%s", a.Hex(), b.Hex()))
	}
	return pair, nil
}
