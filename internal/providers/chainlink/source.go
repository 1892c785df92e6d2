package chainlink

import (
	"context"
	"fmt"
	"time"

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

// DefaultMaxAge tolerates the 24h heartbeat of stablecoin feeds.
const DefaultMaxAge = 25 * time.Hour

// Source prices tokens from Chainlink USD aggregators.
type Source struct {
	chain     chain.Reader
	contracts registry.ChainContracts
	maxAge    time.Duration
	now       func() time.Time
}

func New(reader chain.Reader, contracts registry.ChainContracts, maxAge time.Duration) *Source {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Source{chain: reader, contracts: contracts, maxAge: maxAge, now: time.Now}
}

func (s *Source) Info() providers.ProviderInfo {
	return providers.ProviderInfo{
		Name:        "chainlink",
		Type:        "onchain-oracle",
		Description: "Chainlink token/USD aggregators read through eth_call",
	}
}

func (s *Source) Source() model.PriceSource {
	return model.SourceChainlinkOracle
}

func (s *Source) Price(ctx context.Context, token model.TokenDescriptor) (providers.Price, error) {
	if s.contracts.IsZero() {
		return providers.Price{}, clierr.New(clierr.CodeUnsupportedChain, "no oracle feeds registered for this chain")
	}

	nativeFeed := s.contracts.NativeUSDFeed
	feed := nativeFeed
	if !id.IsNative(token.Address) && token.Address != s.contracts.WrappedNative {
		f, ok := s.contracts.USDFeeds[token.Address]
		if !ok {
			return providers.Price{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("no oracle feed for %s", token.Address.Hex()))
		}
		feed = f
	}

	usd, err := s.readFeed(ctx, feed)
	if err != nil {
		return providers.Price{}, err
	}
	if feed == nativeFeed {
		return providers.Price{USD: usd, ETH: decimal.NewFromInt(1)}, nil
	}
	ethUSD, err := s.readFeed(ctx, nativeFeed)
	if err != nil {
		return providers.Price{}, err
	}
	return providers.Price{USD: usd, ETH: usd.DivRound(ethUSD, providers.PriceScale)}, nil
}

func (s *Source) readFeed(ctx context.Context, feed common.Address) (decimal.Decimal, error) {
	callData, err := contracts.PackFeedDecimals()
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeInternal, "pack decimals", err)
	}
	out, err := s.chain.Call(ctx, feed, callData)
	if err != nil {
		return decimal.Zero, err
	}
	decimals, err := contracts.UnpackFeedDecimals(out)
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeRPC, "oracle returned undecodable decimals", err)
	}

	callData, err = contracts.PackLatestRoundData()
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeInternal, "pack latestRoundData", err)
	}
	out, err = s.chain.Call(ctx, feed, callData)
	if err != nil {
		return decimal.Zero, err
	}
	round, err := contracts.UnpackLatestRoundData(out)
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeRPC, "oracle returned undecodable round data", err)
	}
	if round.Answer.Sign() <= 0 {
		return decimal.Zero, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("oracle %s reported a non-positive answer", feed.Hex()))
	}
	updated := time.Unix(round.UpdatedAt.Int64(), 0)
	if age := s.now().Sub(updated); age > s.maxAge {
		return decimal.Zero, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("oracle %s answer is stale (%s old)", feed.Hex(), age.Truncate(time.Second)))
	}
	return decimal.NewFromBigInt(round.Answer, -int32(decimals)), nil
}
