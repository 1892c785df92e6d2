package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const EnvelopeVersion = "v1"

// Envelope wraps every result printed by the CLI `call` command.
type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

// ErrorBody is the error payload returned to tool callers.
type ErrorBody struct {
	Kind    string         `json:"kind"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type EnvelopeMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Tool      string    `json:"tool,omitempty"`
}

// TokenDescriptor identifies a token with the precision needed to convert its
// amounts. The zero address denotes the native asset.
type TokenDescriptor struct {
	Address  common.Address
	Decimals uint8
	Symbol   string
}

type PriceSource string

const (
	SourceCoinGecko       PriceSource = "CoinGecko"
	SourceChainlinkOracle PriceSource = "ChainlinkOracle"
	SourceDexPoolReserves PriceSource = "DexPoolReserves"
)

// SourceAttempt records one price source consulted for a quote.
type SourceAttempt struct {
	Source    PriceSource `json:"source"`
	Status    string      `json:"status"`
	LatencyMS int64       `json:"latencyMs"`
	Error     string      `json:"error,omitempty"`
}

type PriceQuote struct {
	Token    TokenDescriptor
	USD      decimal.Decimal
	ETH      decimal.Decimal
	Source   PriceSource
	Attempts []SourceAttempt
}

// SwapRoute lists the tokens a swap passes through, source first.
type SwapRoute []TokenDescriptor

type SwapQuote struct {
	Route SwapRoute
	// Path is the router path; the native asset appears as the wrapped token.
	Path              []common.Address
	Router            common.Address
	AmountIn          *big.Int
	AmountOutEstimate *big.Int
	MinimumOut        *big.Int
	SlippageBps       int64
	// GasEstimate is nil when estimation failed; GasError then says why.
	GasEstimate *uint64
	GasError    error
	GasPrice    *big.Int
	Deadline    int64
}

type BalanceResult struct {
	WalletAddress  string `json:"walletAddress"`
	TokenAddress   string `json:"tokenAddress"`
	Symbol         string `json:"symbol,omitempty"`
	BalanceDecimal string `json:"balanceDecimal"`
	Decimals       uint8  `json:"decimals"`
	RawBalance     string `json:"rawBalance"`
}

type PriceResult struct {
	TokenAddress     string          `json:"tokenAddress"`
	Symbol           string          `json:"symbol,omitempty"`
	PriceUSD         string          `json:"priceUsd"`
	PriceETH         string          `json:"priceEth"`
	Source           PriceSource     `json:"source"`
	AttemptedSources []PriceSource   `json:"attemptedSources"`
	Attempts         []SourceAttempt `json:"attempts"`
}

type RouteHop struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
}

type SwapResult struct {
	FromToken                string     `json:"fromToken"`
	ToToken                  string     `json:"toToken"`
	WalletAddress            string     `json:"walletAddress"`
	AmountIn                 string     `json:"amountIn"`
	AmountInDecimal          string     `json:"amountInDecimal"`
	AmountOutEstimate        string     `json:"amountOutEstimate"`
	AmountOutEstimateDecimal string     `json:"amountOutEstimateDecimal"`
	MinimumOut               string     `json:"minimumOut"`
	MinimumOutDecimal        string     `json:"minimumOutDecimal"`
	SlippageBps              int64      `json:"slippageBps"`
	GasEstimate              *uint64    `json:"gasEstimate"`
	GasPriceWei              string     `json:"gasPriceWei,omitempty"`
	GasCostWei               string     `json:"gasCostWei,omitempty"`
	GasError                 *ErrorBody `json:"gasError,omitempty"`
	Route                    []string   `json:"route"`
	RouteDetail              []RouteHop `json:"routeDetail"`
	RouterAddress            string     `json:"routerAddress"`
	Deadline                 int64      `json:"deadline"`
	Simulated                bool       `json:"simulated"`
}
