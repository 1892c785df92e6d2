package tools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ggonzalez94/eth-trading-mcp/internal/swap"
)

const (
	GetBalance    = "get_balance"
	GetTokenPrice = "get_token_price"
	SwapTokens    = "swap_tokens"
)

// Tool descriptions are what the agent reads when picking a tool.

var toolGetBalance = mcp.NewTool(GetBalance,
	mcp.WithDescription(
		"Get the balance of a wallet in the chain's native asset or in an ERC-20 token. "+
			"Returns the exact decimal balance, the raw base-unit balance and the token decimals."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("walletAddress",
		mcp.Required(),
		mcp.Description("Wallet address, 0x followed by 40 hex characters")),
	mcp.WithString("tokenAddress",
		mcp.Description("ERC-20 token address. Omit or pass the zero address for the native asset.")),
)

var toolGetTokenPrice = mcp.NewTool(GetTokenPrice,
	mcp.WithDescription(
		"Get the current price of a token in USD and ETH. "+
			"Sources are tried in order (CoinGecko, Chainlink oracle, Uniswap V2 pool reserves) "+
			"and the response names the source that answered."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("tokenAddress",
		mcp.Required(),
		mcp.Description("Token address. The zero address prices the native asset.")),
)

var toolSwapTokens = mcp.NewTool(SwapTokens,
	mcp.WithDescription(
		"Simulate a Uniswap V2 exact-input swap without sending a transaction. "+
			"Returns the expected output, the minimum output under the slippage tolerance, "+
			"the gas estimate and the route."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("fromToken",
		mcp.Required(),
		mcp.Description("Token to sell. The zero address means the native asset.")),
	mcp.WithString("toToken",
		mcp.Required(),
		mcp.Description("Token to buy. The zero address means the native asset.")),
	mcp.WithString("amount",
		mcp.Required(),
		mcp.Description("Amount to sell as a decimal string in whole-token units (e.g. '1.5')")),
	mcp.WithNumber("slippageBps",
		mcp.Description("Slippage tolerance in basis points, 0 to 10000 (default 50 = 0.5%)"),
		mcp.Min(0),
		mcp.Max(float64(swap.MaxSlippageBps)),
		mcp.DefaultNumber(float64(swap.DefaultSlippageBps))),
	mcp.WithString("walletAddress",
		mcp.Required(),
		mcp.Description("Wallet the swap is simulated from; used as sender and recipient for gas estimation")),
)

var definitions = []mcp.Tool{toolGetBalance, toolGetTokenPrice, toolSwapTokens}

// Definitions returns the tool catalogue in a stable order.
func Definitions() []mcp.Tool {
	return append([]mcp.Tool(nil), definitions...)
}

// Names lists the tool names in catalogue order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for _, def := range definitions {
		names = append(names, def.Name)
	}
	return names
}
