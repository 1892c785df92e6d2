package registry

import (
	"maps"

	"github.com/ethereum/go-ethereum/common"
)

// ChainContracts is the set of well-known contracts the quoting engine reads
// on one chain.
type ChainContracts struct {
	ChainID          int64
	WrappedNative    common.Address
	UniswapV2Router  common.Address
	UniswapV2Factory common.Address
	// ReferenceStable is the USD stablecoin whose pool against WrappedNative
	// anchors reserve-derived USD prices.
	ReferenceStable         common.Address
	ReferenceStableDecimals uint8
	// NativeUSDFeed is the Chainlink native/USD aggregator.
	NativeUSDFeed common.Address
	// USDFeeds maps ERC-20 tokens to their Chainlink token/USD aggregator.
	USDFeeds map[common.Address]common.Address
}

var contractsByChainID = map[int64]ChainContracts{
	1: {
		ChainID:                 1,
		WrappedNative:           common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		UniswapV2Router:         common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		UniswapV2Factory:        common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
		ReferenceStable:         common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		ReferenceStableDecimals: 6,
		NativeUSDFeed:           common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"),
		USDFeeds: map[common.Address]common.Address{
			// USDC
			common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"): common.HexToAddress("0x8fFfFfd4AfB6115b954Bd326cbe7B4BA576818f6"),
			// USDT
			common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"): common.HexToAddress("0x3E7d1eAB13ad0104d2750B8863b489D65364e32D"),
			// DAI
			common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"): common.HexToAddress("0xAed0c38402a5d19df6E4c03F4E2DceD6e29c1ee9"),
			// WBTC priced off BTC/USD
			common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"): common.HexToAddress("0xF4030086522a5bEEa4988F8cA5B36dbC97BeE88c"),
			// LINK
			common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"): common.HexToAddress("0x2c1d072e956AFFC0D435Cb7AC38EF18d24d9127c"),
		},
	},
	8453: {
		ChainID:                 8453,
		WrappedNative:           common.HexToAddress("0x4200000000000000000000000000000000000006"),
		UniswapV2Router:         common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
		UniswapV2Factory:        common.HexToAddress("0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6"),
		ReferenceStable:         common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		ReferenceStableDecimals: 6,
		NativeUSDFeed:           common.HexToAddress("0x71041dddad3595F9CEd3DcCFBe3D1F4b0a16Bb70"),
		USDFeeds: map[common.Address]common.Address{
			common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"): common.HexToAddress("0x7e860098F58bBFC8648a4311b374B1D669a2bc6B"),
		},
	},
}

// Contracts returns the contract set for chainID. The returned value owns its
// feed map.
func Contracts(chainID int64) (ChainContracts, bool) {
	c, ok := contractsByChainID[chainID]
	if !ok {
		return ChainContracts{}, false
	}
	c.USDFeeds = maps.Clone(c.USDFeeds)
	return c, true
}

// ContractOverrides replaces individual registry entries. Empty fields keep
// the registry value.
type ContractOverrides struct {
	WrappedNative    string
	UniswapV2Router  string
	UniswapV2Factory string
	ReferenceStable  string
	NativeUSDFeed    string
}

// Apply returns a copy of c with the non-empty overrides applied.
func (o ContractOverrides) Apply(c ChainContracts) ChainContracts {
	set := func(dst *common.Address, value string) {
		if value != "" {
			*dst = common.HexToAddress(value)
		}
	}
	c.USDFeeds = maps.Clone(c.USDFeeds)
	set(&c.WrappedNative, o.WrappedNative)
	set(&c.UniswapV2Router, o.UniswapV2Router)
	set(&c.UniswapV2Factory, o.UniswapV2Factory)
	set(&c.ReferenceStable, o.ReferenceStable)
	set(&c.NativeUSDFeed, o.NativeUSDFeed)
	return c
}

// IsZero reports whether no contract set is configured.
func (c ChainContracts) IsZero() bool {
	return c.ChainID == 0
}
