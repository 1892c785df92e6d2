package tools

import (
	"fmt"
	"strings"

	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
)

// Summary renders a short human-readable account of a tool result.
func Summary(result any) string {
	switch r := result.(type) {
	case model.BalanceResult:
		return fmt.Sprintf("Balance: %s %s\nDecimals: %d\nWallet: %s\nRaw balance: %s",
			r.BalanceDecimal, symbolOr(r.Symbol, r.TokenAddress), r.Decimals, r.WalletAddress, r.RawBalance)
	case model.PriceResult:
		return fmt.Sprintf("Token: %s\nPrice (USD): %s\nPrice (ETH): %s\nSource: %s",
			symbolOr(r.Symbol, r.TokenAddress), r.PriceUSD, r.PriceETH, r.Source)
	case model.SwapResult:
		var b strings.Builder
		b.WriteString("Swap simulation (nothing was sent):\n")
		fmt.Fprintf(&b, "Amount in: %s\n", r.AmountInDecimal)
		fmt.Fprintf(&b, "Estimated output: %s\n", r.AmountOutEstimateDecimal)
		fmt.Fprintf(&b, "Minimum output: %s\n", r.MinimumOutDecimal)
		fmt.Fprintf(&b, "Slippage tolerance: %d bps (%s%%)\n", r.SlippageBps, bpsPercent(r.SlippageBps))
		switch {
		case r.GasEstimate != nil:
			fmt.Fprintf(&b, "Estimated gas: %d\n", *r.GasEstimate)
		case r.GasError != nil:
			fmt.Fprintf(&b, "Estimated gas: unavailable (%s)\n", r.GasError.Message)
		}
		b.WriteString("Route: " + strings.Join(routeSymbols(r.RouteDetail), " -> "))
		return b.String()
	default:
		return ""
	}
}

func symbolOr(symbol, address string) string {
	if symbol != "" {
		return symbol
	}
	return address
}

func routeSymbols(hops []model.RouteHop) []string {
	out := make([]string, 0, len(hops))
	for _, hop := range hops {
		out = append(out, symbolOr(hop.Symbol, hop.Address))
	}
	return out
}

func bpsPercent(bps int64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%d.%02d", bps/100, bps%100), "0"), ".")
}
