package providers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
)

// PriceScale is the number of fractional digits kept when a price is derived
// by division.
const PriceScale = 18

type ProviderInfo struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	RequiresKey   bool   `json:"requires_key"`
	KeyEnvVarName string `json:"key_env_var,omitempty"`
	Description   string `json:"description,omitempty"`
}

type Provider interface {
	Info() ProviderInfo
}

// Price is a token's value in USD and in the chain's native asset.
type Price struct {
	USD decimal.Decimal
	ETH decimal.Decimal
}

// PriceSource is one independent way of pricing a token.
type PriceSource interface {
	Provider
	Source() model.PriceSource
	Price(ctx context.Context, token model.TokenDescriptor) (Price, error)
}
