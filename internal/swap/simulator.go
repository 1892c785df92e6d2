// Package swap quotes UniswapV2 exact-input swaps by simulation. It never
// signs or submits anything; gas is measured with eth_estimateGas only.
package swap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain"
	"github.com/ggonzalez94/eth-trading-mcp/internal/contracts"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
	"github.com/ggonzalez94/eth-trading-mcp/internal/tokens"
)

const (
	DefaultSlippageBps int64 = 50
	MaxSlippageBps     int64 = 10_000
	// DeadlineWindow is added to the current time for the simulated deadline.
	DeadlineWindow = 20 * time.Minute
)

type Request struct {
	FromToken   common.Address
	ToToken     common.Address
	Amount      string
	SlippageBps int64
	Wallet      common.Address
}

type Simulator struct {
	chain     chain.Reader
	tokens    *tokens.Resolver
	contracts registry.ChainContracts
	wrapped   model.TokenDescriptor
	log       zerolog.Logger
	now       func() time.Time
}

func NewSimulator(reader chain.Reader, resolver *tokens.Resolver, contracts registry.ChainContracts, log zerolog.Logger) *Simulator {
	return &Simulator{
		chain:     reader,
		tokens:    resolver,
		contracts: contracts,
		wrapped: model.TokenDescriptor{
			Address:  contracts.WrappedNative,
			Decimals: 18,
			Symbol:   "W" + resolver.Native().Symbol,
		},
		log: log.With().Str("component", "swap").Logger(),
		now: time.Now,
	}
}

// Router returns the router the simulator quotes against.
func (s *Simulator) Router() common.Address {
	return s.contracts.UniswapV2Router
}

// Validate checks the parts of a request that need no network access.
func (s *Simulator) Validate(req Request) error {
	if s.contracts.IsZero() {
		return clierr.New(clierr.CodeUnsupportedChain, "no uniswap-v2 deployment registered for this chain")
	}
	if req.SlippageBps < 0 || req.SlippageBps > MaxSlippageBps {
		return clierr.New(clierr.CodeInvalidArguments, fmt.Sprintf("slippage must be between 0 and %d bps", MaxSlippageBps)).WithField("slippageBps")
	}
	if req.FromToken == req.ToToken {
		return clierr.New(clierr.CodeInvalidArguments, "source and destination tokens must differ").WithField("toToken")
	}
	if s.isWrapping(req.FromToken, req.ToToken) {
		return clierr.New(clierr.CodeInvalidArguments, "wrapping or unwrapping the native asset is not a router swap").WithField("toToken")
	}
	return nil
}

func (s *Simulator) Simulate(ctx context.Context, req Request) (model.SwapQuote, error) {
	if err := s.Validate(req); err != nil {
		return model.SwapQuote{}, err
	}

	from, to, err := s.tokens.ResolvePair(ctx, req.FromToken, req.ToToken)
	if err != nil {
		return model.SwapQuote{}, err
	}

	amountIn, err := id.ToBaseUnits(req.Amount, from.Decimals)
	if err != nil {
		if typed, ok := clierr.As(err); ok {
			typed.WithField("amount")
		}
		return model.SwapQuote{}, err
	}
	if amountIn.Sign() <= 0 {
		return model.SwapQuote{}, clierr.New(clierr.CodeInvalidAmount, "amount must be greater than zero").WithField("amount")
	}

	route := s.Route(from, to)
	path := s.routerPath(route)
	amounts, err := s.amountsOut(ctx, amountIn, path)
	if err != nil {
		return model.SwapQuote{}, err
	}
	amountOut := amounts[len(amounts)-1]
	if amountOut.Sign() == 0 {
		return model.SwapQuote{}, clierr.New(clierr.CodeInsufficientLiquidity, "route yields zero output for this amount")
	}

	quote := model.SwapQuote{
		Route:             route,
		Path:              path,
		Router:            s.contracts.UniswapV2Router,
		AmountIn:          amountIn,
		AmountOutEstimate: amountOut,
		MinimumOut:        MinimumOut(amountOut, req.SlippageBps),
		SlippageBps:       req.SlippageBps,
		Deadline:          s.now().Add(DeadlineWindow).Unix(),
	}

	gas, err := s.estimateGas(ctx, quote, req.Wallet)
	if err != nil {
		s.log.Debug().Err(err).Str("wallet", req.Wallet.Hex()).Msg("gas estimation failed")
		quote.GasError = err
		return quote, nil
	}
	quote.GasEstimate = &gas
	if price, err := s.chain.GasPrice(ctx); err == nil {
		quote.GasPrice = price
	} else {
		s.log.Debug().Err(err).Msg("gas price unavailable")
	}
	return quote, nil
}

// Route applies the single routing policy: trade directly when either side is
// the native asset or its wrapped token, otherwise hop through the wrapped
// native token.
func (s *Simulator) Route(from, to model.TokenDescriptor) model.SwapRoute {
	if s.isNativeLike(from.Address) || s.isNativeLike(to.Address) {
		return model.SwapRoute{from, to}
	}
	return model.SwapRoute{from, s.wrapped, to}
}

// MinimumOut applies the slippage tolerance with floor division.
func MinimumOut(amountOut *big.Int, slippageBps int64) *big.Int {
	out := new(big.Int).Mul(amountOut, big.NewInt(MaxSlippageBps-slippageBps))
	return out.Div(out, big.NewInt(MaxSlippageBps))
}

func (s *Simulator) isNativeLike(addr common.Address) bool {
	return id.IsNative(addr) || addr == s.contracts.WrappedNative
}

func (s *Simulator) isWrapping(a, b common.Address) bool {
	return (id.IsNative(a) && b == s.contracts.WrappedNative) || (a == s.contracts.WrappedNative && id.IsNative(b))
}

func (s *Simulator) routerPath(route model.SwapRoute) []common.Address {
	path := make([]common.Address, 0, len(route))
	for _, hop := range route {
		if id.IsNative(hop.Address) {
			path = append(path, s.contracts.WrappedNative)
			continue
		}
		path = append(path, hop.Address)
	}
	return path
}

func (s *Simulator) amountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	callData, err := contracts.PackGetAmountsOut(amountIn, path)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack getAmountsOut", err)
	}
	out, err := s.chain.Call(ctx, s.contracts.UniswapV2Router, callData)
	if err != nil {
		if chain.IsReverted(err) {
			message := "router cannot fill this amount along the route"
			if reason := chain.RevertReason(err); reason != "" {
				message += ": " + reason
			}
			return nil, clierr.Wrap(clierr.CodeInsufficientLiquidity, message, err)
		}
		return nil, err
	}
	amounts, err := contracts.UnpackGetAmountsOut(out)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeRPC, "router returned undecodable amounts", err)
	}
	if len(amounts) != len(path) {
		return nil, clierr.New(clierr.CodeRPC, fmt.Sprintf("router returned %d amounts for a %d-token path", len(amounts), len(path)))
	}
	return amounts, nil
}

func (s *Simulator) estimateGas(ctx context.Context, quote model.SwapQuote, wallet common.Address) (uint64, error) {
	from := quote.Route[0]
	to := quote.Route[len(quote.Route)-1]
	deadline := big.NewInt(quote.Deadline)

	var (
		callData []byte
		value    *big.Int
		err      error
	)
	switch {
	case id.IsNative(from.Address):
		callData, err = contracts.PackSwapExactETHForTokens(quote.MinimumOut, quote.Path, wallet, deadline)
		value = quote.AmountIn
	case id.IsNative(to.Address):
		callData, err = contracts.PackSwapExactTokensForETH(quote.AmountIn, quote.MinimumOut, quote.Path, wallet, deadline)
	default:
		callData, err = contracts.PackSwapExactTokensForTokens(quote.AmountIn, quote.MinimumOut, quote.Path, wallet, deadline)
	}
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInternal, "pack swap calldata", err)
	}

	gas, err := s.chain.EstimateGas(ctx, chain.CallRequest{
		From:  wallet,
		To:    s.contracts.UniswapV2Router,
		Data:  callData,
		Value: value,
	})
	if err != nil {
		message := "gas estimation failed"
		if typed, ok := clierr.As(err); ok {
			message += ": " + typed.Message
		}
		out := clierr.Wrap(clierr.CodeGasEstimationFailed, message, err)
		if chain.IsReverted(err) && !id.IsNative(from.Address) {
			out.WithDetail("hint", "the wallet may lack the token balance or router allowance")
		}
		return 0, out
	}
	return gas, nil
}
