// Package tools validates tool arguments, runs the balance, price and swap
// workflows, and shapes their results and errors for callers.
package tools

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/policy"
	"github.com/ggonzalez94/eth-trading-mcp/internal/pricing"
	"github.com/ggonzalez94/eth-trading-mcp/internal/swap"
	"github.com/ggonzalez94/eth-trading-mcp/internal/tokens"
)

type Options struct {
	Chain       chain.Reader
	Tokens      *tokens.Resolver
	Prices      *pricing.Aggregator
	Swaps       *swap.Simulator
	EnableTools []string
	Log         zerolog.Logger
}

type Dispatcher struct {
	chain     chain.Reader
	tokens    *tokens.Resolver
	prices    *pricing.Aggregator
	swaps     *swap.Simulator
	allowlist []string
	log       zerolog.Logger
	handlers  map[string]handler
}

// handler validates args completely before touching the network.
type handler func(ctx context.Context, args map[string]any) (any, error)

func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		chain:     opts.Chain,
		tokens:    opts.Tokens,
		prices:    opts.Prices,
		swaps:     opts.Swaps,
		allowlist: opts.EnableTools,
		log:       opts.Log.With().Str("component", "tools").Logger(),
	}
	d.handlers = map[string]handler{
		GetBalance:    d.getBalance,
		GetTokenPrice: d.getTokenPrice,
		SwapTokens:    d.swapTokens,
	}
	return d
}

// Dispatch runs one tool call. The result is one of model.BalanceResult,
// model.PriceResult or model.SwapResult.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	if err := CheckName(name, d.allowlist); err != nil {
		return nil, err
	}
	run := d.handlers[name]

	start := time.Now()
	result, err := run(ctx, args)
	event := d.log.Debug().Str("tool", name)
	if err != nil {
		event = event.Err(err).Str("kind", clierr.CodeOf(err).Kind())
	}
	event.Dur("elapsed", time.Since(start)).Msg("tool call finished")
	return result, err
}

// CheckName rejects unknown tools and tools outside a non-empty allowlist.
func CheckName(name string, allowlist []string) error {
	if !slices.Contains(Names(), name) {
		return clierr.New(clierr.CodeUnknownTool, fmt.Sprintf("unknown tool %q", name)).
			WithDetail("available", Names())
	}
	return policy.CheckToolAllowed(allowlist, name)
}

func (d *Dispatcher) getBalance(ctx context.Context, raw map[string]any) (any, error) {
	args, err := normalizeArgs(raw, "walletAddress", "tokenAddress")
	if err != nil {
		return nil, err
	}
	wallet, err := args.address("walletAddress", true)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := args.address("tokenAddress", false)
	if err != nil {
		return nil, err
	}

	// Resolve before reading so a non-token address reports UnresolvableToken.
	token, err := d.tokens.Resolve(ctx, tokenAddr)
	if err != nil {
		return nil, err
	}
	var balance *big.Int
	if id.IsNative(tokenAddr) {
		balance, err = d.chain.NativeBalance(ctx, wallet)
	} else {
		balance, err = d.chain.ERC20Balance(ctx, tokenAddr, wallet)
	}
	if err != nil {
		return nil, err
	}

	return model.BalanceResult{
		WalletAddress:  wallet.Hex(),
		TokenAddress:   tokenAddr.Hex(),
		Symbol:         token.Symbol,
		BalanceDecimal: id.FormatBaseUnits(balance, token.Decimals),
		Decimals:       token.Decimals,
		RawBalance:     balance.String(),
	}, nil
}

func (d *Dispatcher) getTokenPrice(ctx context.Context, raw map[string]any) (any, error) {
	args, err := normalizeArgs(raw, "tokenAddress")
	if err != nil {
		return nil, err
	}
	tokenAddr, err := args.address("tokenAddress", true)
	if err != nil {
		return nil, err
	}

	token, err := d.tokens.Resolve(ctx, tokenAddr)
	if err != nil {
		return nil, err
	}
	quote, err := d.prices.Price(ctx, token)
	if err != nil {
		return nil, err
	}

	attempted := make([]model.PriceSource, 0, len(quote.Attempts))
	for _, attempt := range quote.Attempts {
		attempted = append(attempted, attempt.Source)
	}
	return model.PriceResult{
		TokenAddress:     tokenAddr.Hex(),
		Symbol:           token.Symbol,
		PriceUSD:         quote.USD.String(),
		PriceETH:         quote.ETH.String(),
		Source:           quote.Source,
		AttemptedSources: attempted,
		Attempts:         quote.Attempts,
	}, nil
}

func (d *Dispatcher) swapTokens(ctx context.Context, raw map[string]any) (any, error) {
	args, err := normalizeArgs(raw, "fromToken", "toToken", "amount", "slippageBps", "walletAddress")
	if err != nil {
		return nil, err
	}
	req, err := parseSwapRequest(args)
	if err != nil {
		return nil, err
	}
	if err := d.swaps.Validate(req); err != nil {
		return nil, err
	}

	quote, err := d.swaps.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	return swapResult(req.Wallet, quote), nil
}

func parseSwapRequest(args arguments) (swap.Request, error) {
	from, err := args.address("fromToken", true)
	if err != nil {
		return swap.Request{}, err
	}
	to, err := args.address("toToken", true)
	if err != nil {
		return swap.Request{}, err
	}
	amount, err := args.str("amount", true)
	if err != nil {
		return swap.Request{}, err
	}
	if err := id.ValidateDecimal(amount); err != nil {
		if typed, ok := clierr.As(err); ok {
			typed.WithField("amount")
		}
		return swap.Request{}, err
	}
	slippage, err := args.integer("slippageBps", swap.DefaultSlippageBps)
	if err != nil {
		return swap.Request{}, err
	}
	if slippage < 0 || slippage > swap.MaxSlippageBps {
		return swap.Request{}, clierr.New(clierr.CodeInvalidArguments, fmt.Sprintf("slippageBps must be between 0 and %d", swap.MaxSlippageBps)).WithField("slippageBps")
	}
	wallet, err := args.address("walletAddress", true)
	if err != nil {
		return swap.Request{}, err
	}
	return swap.Request{
		FromToken:   from,
		ToToken:     to,
		Amount:      amount,
		SlippageBps: slippage,
		Wallet:      wallet,
	}, nil
}

func swapResult(wallet common.Address, quote model.SwapQuote) model.SwapResult {
	from := quote.Route[0]
	to := quote.Route[len(quote.Route)-1]

	route := make([]string, 0, len(quote.Route))
	detail := make([]model.RouteHop, 0, len(quote.Route))
	for _, hop := range quote.Route {
		route = append(route, hop.Address.Hex())
		detail = append(detail, model.RouteHop{Address: hop.Address.Hex(), Symbol: hop.Symbol, Decimals: hop.Decimals})
	}

	result := model.SwapResult{
		FromToken:                from.Address.Hex(),
		ToToken:                  to.Address.Hex(),
		WalletAddress:            wallet.Hex(),
		AmountIn:                 quote.AmountIn.String(),
		AmountInDecimal:          id.FormatBaseUnits(quote.AmountIn, from.Decimals),
		AmountOutEstimate:        quote.AmountOutEstimate.String(),
		AmountOutEstimateDecimal: id.FormatBaseUnits(quote.AmountOutEstimate, to.Decimals),
		MinimumOut:               quote.MinimumOut.String(),
		MinimumOutDecimal:        id.FormatBaseUnits(quote.MinimumOut, to.Decimals),
		SlippageBps:              quote.SlippageBps,
		GasEstimate:              quote.GasEstimate,
		Route:                    route,
		RouteDetail:              detail,
		RouterAddress:            quote.Router.Hex(),
		Deadline:                 quote.Deadline,
		Simulated:                true,
	}
	if quote.GasError != nil {
		body := ErrorPayload(quote.GasError)
		result.GasError = &body
	}
	if quote.GasEstimate != nil && quote.GasPrice != nil {
		result.GasPriceWei = quote.GasPrice.String()
		cost := new(big.Int).SetUint64(*quote.GasEstimate)
		result.GasCostWei = cost.Mul(cost, quote.GasPrice).String()
	}
	return result
}

// ErrorPayload converts err into the caller-facing error body. Node messages
// pass through; internal failures are reported generically and untyped
// causes are never serialized.
func ErrorPayload(err error) model.ErrorBody {
	typed, ok := clierr.As(err)
	if !ok {
		return model.ErrorBody{
			Kind:    clierr.CodeInternal.Kind(),
			Code:    int(clierr.CodeInternal),
			Message: "internal error",
		}
	}
	body := model.ErrorBody{
		Kind:    typed.Code.Kind(),
		Code:    int(typed.Code),
		Message: typed.Message,
		Field:   typed.Field,
		Details: typed.Details,
	}
	if typed.Code == clierr.CodeInternal {
		body.Message = "internal error"
		body.Details = nil
	}
	if strings.TrimSpace(body.Message) == "" {
		body.Message = strings.ToLower(body.Kind)
	}
	return body
}
