package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/httpx"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	APIKeyEnvVar   = "COINGECKO_API_KEY"
)

type Options struct {
	BaseURL string
	APIKey  string
}

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	native  registry.NativeAsset
}

func New(httpClient *httpx.Client, chainID int64, opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	native, _ := registry.Native(chainID)
	return &Client{
		http:    httpClient,
		baseURL: base,
		apiKey:  strings.TrimSpace(opts.APIKey),
		native:  native,
	}
}

func (c *Client) Info() providers.ProviderInfo {
	return providers.ProviderInfo{
		Name:          "coingecko",
		Type:          "price-api",
		RequiresKey:   false,
		KeyEnvVarName: APIKeyEnvVar,
		Description:   "CoinGecko simple price API (usd and eth quotes)",
	}
}

func (c *Client) Source() model.PriceSource {
	return model.SourceCoinGecko
}

// quote fields are pointers so a missing currency is distinguishable from 0.
type quote struct {
	USD *decimal.Decimal `json:"usd"`
	ETH *decimal.Decimal `json:"eth"`
}

func (c *Client) Price(ctx context.Context, token model.TokenDescriptor) (providers.Price, error) {
	var (
		endpoint string
		key      string
	)
	if id.IsNative(token.Address) {
		if c.native.CoinGeckoID == "" {
			return providers.Price{}, clierr.New(clierr.CodeUnsupportedChain, "coingecko has no id for this chain's native asset")
		}
		key = c.native.CoinGeckoID
		endpoint = c.baseURL + "/simple/price?" + url.Values{
			"ids":           {key},
			"vs_currencies": {"usd,eth"},
		}.Encode()
	} else {
		if c.native.CoinGeckoPlatform == "" {
			return providers.Price{}, clierr.New(clierr.CodeUnsupportedChain, "coingecko has no platform for this chain")
		}
		key = strings.ToLower(token.Address.Hex())
		endpoint = c.baseURL + "/simple/token_price/" + c.native.CoinGeckoPlatform + "?" + url.Values{
			"contract_addresses": {key},
			"vs_currencies":      {"usd,eth"},
		}.Encode()
	}

	var resp map[string]quote
	if err := c.http.GetJSON(ctx, endpoint, c.headers(), &resp); err != nil {
		return providers.Price{}, err
	}
	q, ok := resp[key]
	if !ok {
		return providers.Price{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("coingecko has no price for %s", key))
	}
	if q.USD == nil || q.ETH == nil {
		return providers.Price{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("coingecko response for %s lacks usd or eth", key))
	}
	if !q.USD.IsPositive() || !q.ETH.IsPositive() {
		return providers.Price{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("coingecko returned a non-positive price for %s", key))
	}
	return providers.Price{USD: *q.USD, ETH: *q.ETH}, nil
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	if strings.Contains(c.baseURL, "pro-api.coingecko.com") {
		return map[string]string{"x-cg-pro-api-key": c.apiKey}
	}
	return map[string]string{"x-cg-demo-api-key": c.apiKey}
}
