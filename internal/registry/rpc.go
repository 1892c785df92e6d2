package registry

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

// Public endpoints used when no rpc url is configured for the expected chain.
var defaultRPCByChainID = map[int64]string{
	1:     "https://eth.llamarpc.com",
	10:    "https://mainnet.optimism.io",
	56:    "https://bsc-dataseed.binance.org",
	137:   "https://polygon-rpc.com",
	8453:  "https://mainnet.base.org",
	42161: "https://arb1.arbitrum.io/rpc",
	43114: "https://api.avax.network/ext/bc/C/rpc",
}

func DefaultRPCURL(chainID int64) (string, bool) {
	value, ok := defaultRPCByChainID[chainID]
	return value, ok
}

// ResolveRPCURL prefers an explicit endpoint and falls back to the public
// default of the expected chain.
func ResolveRPCURL(configured string, expectedChainID int64) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	if value, ok := DefaultRPCURL(expectedChainID); ok {
		return value, nil
	}
	return "", clierr.New(clierr.CodeInvalidArguments, fmt.Sprintf("no default rpc endpoint for chain id %d; set rpc_url or ETH_RPC_URL", expectedChainID))
}
