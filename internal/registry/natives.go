package registry

// NativeAsset describes a chain's native currency. Every listed chain uses 18
// decimals for its native asset.
type NativeAsset struct {
	Symbol   string
	Decimals uint8
	// CoinGeckoID is the /simple/price id of the native asset.
	CoinGeckoID string
	// CoinGeckoPlatform is the /simple/token_price platform id for the chain.
	CoinGeckoPlatform string
}

var nativeByChainID = map[int64]NativeAsset{
	1:     {Symbol: "ETH", Decimals: 18, CoinGeckoID: "ethereum", CoinGeckoPlatform: "ethereum"},
	10:    {Symbol: "ETH", Decimals: 18, CoinGeckoID: "ethereum", CoinGeckoPlatform: "optimistic-ethereum"},
	56:    {Symbol: "BNB", Decimals: 18, CoinGeckoID: "binancecoin", CoinGeckoPlatform: "binance-smart-chain"},
	137:   {Symbol: "POL", Decimals: 18, CoinGeckoID: "polygon-ecosystem-token", CoinGeckoPlatform: "polygon-pos"},
	8453:  {Symbol: "ETH", Decimals: 18, CoinGeckoID: "ethereum", CoinGeckoPlatform: "base"},
	42161: {Symbol: "ETH", Decimals: 18, CoinGeckoID: "ethereum", CoinGeckoPlatform: "arbitrum-one"},
	43114: {Symbol: "AVAX", Decimals: 18, CoinGeckoID: "avalanche-2", CoinGeckoPlatform: "avalanche"},
}

// Native returns the native asset of chainID. Unknown chains fall back to an
// 18-decimal "ETH" descriptor with no CoinGecko mapping.
func Native(chainID int64) (NativeAsset, bool) {
	if asset, ok := nativeByChainID[chainID]; ok {
		return asset, true
	}
	return NativeAsset{Symbol: "ETH", Decimals: 18}, false
}
