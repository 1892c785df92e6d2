package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain/chaintest"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
)

var usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

func TestResolveNativeMakesNoCalls(t *testing.T) {
	reader := chaintest.New()
	r := NewResolver(reader, 1, zerolog.Nop())

	token, err := r.Resolve(context.Background(), id.NativeAddress)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if token.Decimals != 18 || token.Symbol != "ETH" {
		t.Fatalf("unexpected native descriptor %+v", token)
	}
	if reader.CallCount() != 0 {
		t.Fatalf("native resolution must not touch the chain, got %v", reader.Calls())
	}
}

func TestResolveERC20(t *testing.T) {
	reader := chaintest.New()
	reader.Tokens[usdc] = &chaintest.Token{Decimals: 6, Symbol: "USDC"}
	r := NewResolver(reader, 1, zerolog.Nop())

	token, err := r.Resolve(context.Background(), usdc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if token.Address != usdc || token.Decimals != 6 || token.Symbol != "USDC" {
		t.Fatalf("unexpected descriptor %+v", token)
	}
}

func TestResolveToleratesMissingSymbol(t *testing.T) {
	reader := chaintest.New()
	reader.Tokens[usdc] = &chaintest.Token{Decimals: 6, SymbolErr: errors.New("no symbol")}
	r := NewResolver(reader, 1, zerolog.Nop())

	token, err := r.Resolve(context.Background(), usdc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if token.Symbol != "" || token.Decimals != 6 {
		t.Fatalf("unexpected descriptor %+v", token)
	}
}

func TestResolveUnreadableDecimals(t *testing.T) {
	reader := chaintest.New()
	r := NewResolver(reader, 1, zerolog.Nop())

	_, err := r.Resolve(context.Background(), usdc)
	if clierr.CodeOf(err) != clierr.CodeUnresolvableToken {
		t.Fatalf("expected unresolvable token, got %v", err)
	}
}

func TestResolveRejectsOversizedDecimals(t *testing.T) {
	reader := chaintest.New()
	reader.Tokens[usdc] = &chaintest.Token{Decimals: 200}
	r := NewResolver(reader, 1, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), usdc); clierr.CodeOf(err) != clierr.CodeUnresolvableToken {
		t.Fatalf("expected unresolvable token, got %v", err)
	}
}

func TestResolvePair(t *testing.T) {
	reader := chaintest.New()
	reader.Tokens[usdc] = &chaintest.Token{Decimals: 6, Symbol: "USDC"}
	r := NewResolver(reader, 1, zerolog.Nop())

	from, to, err := r.ResolvePair(context.Background(), id.NativeAddress, usdc)
	if err != nil {
		t.Fatalf("ResolvePair failed: %v", err)
	}
	if from.Symbol != "ETH" || to.Symbol != "USDC" {
		t.Fatalf("unexpected pair %+v %+v", from, to)
	}
}
