package chainlink

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain/chaintest"
	"github.com/ggonzalez94/eth-trading-mcp/internal/contracts"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
)

var (
	now  = time.Unix(1_700_000_000, 0)
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

type feedAnswer struct {
	answer    int64
	updatedAt int64
}

func newFeedReader(t *testing.T, feeds map[common.Address]feedAnswer) *chaintest.Reader {
	t.Helper()
	reader := chaintest.New()
	reader.OnCall = func(to common.Address, data []byte) ([]byte, error) {
		answer, ok := feeds[to]
		if !ok {
			return nil, clierr.New(clierr.CodeRPC, "eth_call: unknown feed")
		}
		method, _, err := chaintest.Method(contracts.ChainlinkAggregator, data)
		if err != nil {
			t.Fatalf("decode feed call: %v", err)
		}
		switch method.Name {
		case "decimals":
			return chaintest.Output(contracts.ChainlinkAggregator, "decimals", uint8(8)), nil
		default:
			return chaintest.Output(contracts.ChainlinkAggregator, "latestRoundData",
				big.NewInt(1), big.NewInt(answer.answer), big.NewInt(answer.updatedAt), big.NewInt(answer.updatedAt), big.NewInt(1)), nil
		}
	}
	return reader
}

func newTestSource(reader *chaintest.Reader) *Source {
	c, _ := registry.Contracts(1)
	s := New(reader, c, time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestPriceNative(t *testing.T) {
	c, _ := registry.Contracts(1)
	reader := newFeedReader(t, map[common.Address]feedAnswer{
		c.NativeUSDFeed: {answer: 345_678_000_000, updatedAt: now.Unix() - 60},
	})
	price, err := newTestSource(reader).Price(context.Background(), model.TokenDescriptor{Address: id.NativeAddress, Decimals: 18})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.USD.String() != "3456.78" || price.ETH.String() != "1" {
		t.Fatalf("unexpected native price %s / %s", price.USD, price.ETH)
	}
}

func TestPriceTokenDerivesEth(t *testing.T) {
	c, _ := registry.Contracts(1)
	reader := newFeedReader(t, map[common.Address]feedAnswer{
		c.NativeUSDFeed:  {answer: 400_000_000_000, updatedAt: now.Unix()},
		c.USDFeeds[usdc]: {answer: 100_000_000, updatedAt: now.Unix()},
	})
	price, err := newTestSource(reader).Price(context.Background(), model.TokenDescriptor{Address: usdc, Decimals: 6})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.USD.String() != "1" || price.ETH.String() != "0.00025" {
		t.Fatalf("unexpected price %s / %s", price.USD, price.ETH)
	}
}

func TestPriceRejectsStaleAnswer(t *testing.T) {
	c, _ := registry.Contracts(1)
	reader := newFeedReader(t, map[common.Address]feedAnswer{
		c.NativeUSDFeed: {answer: 345_678_000_000, updatedAt: now.Add(-2 * time.Hour).Unix()},
	})
	_, err := newTestSource(reader).Price(context.Background(), model.TokenDescriptor{Address: id.NativeAddress})
	if clierr.CodeOf(err) != clierr.CodePriceUnavailable {
		t.Fatalf("expected stale answer to be rejected, got %v", err)
	}
}

func TestPriceUnknownFeedMakesNoCalls(t *testing.T) {
	reader := newFeedReader(t, nil)
	_, err := newTestSource(reader).Price(context.Background(), model.TokenDescriptor{Address: common.HexToAddress("0x00000000000000000000000000000000000000AA")})
	if clierr.CodeOf(err) != clierr.CodePriceUnavailable {
		t.Fatalf("expected price unavailable, got %v", err)
	}
	if reader.CallCount() != 0 {
		t.Fatalf("expected no chain calls, got %v", reader.Calls())
	}
}
