// Package chain is the read-only gateway to one EVM node. It exposes balance
// reads, contract calls and gas estimation, and nothing that signs or submits
// transactions.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/ggonzalez94/eth-trading-mcp/internal/contracts"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

// Reader is the capability set every workflow depends on.
type Reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	ERC20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	ERC20Decimals(ctx context.Context, token common.Address) (uint8, error)
	ERC20Symbol(ctx context.Context, token common.Address) (string, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	EstimateGas(ctx context.Context, req CallRequest) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
}

// CallRequest describes a simulated message for gas estimation.
type CallRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

type Config struct {
	RPCURL string
	// CallTimeout bounds every individual node request.
	CallTimeout time.Duration
	// ExpectedChainID, when non-zero, must match the node's chain id.
	ExpectedChainID int64
}

// Client is safe for concurrent use. It holds no per-request state.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	timeout time.Duration
	log     zerolog.Logger
}

var _ Reader = (*Client)(nil)

// Dial connects to the node and reads its chain id once as a liveness check.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.RPCURL)
	if endpoint == "" {
		return nil, clierr.New(clierr.CodeInvalidArguments, "rpc url is required")
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rpcClient, err := rpc.DialContext(dialCtx, endpoint)
	if err != nil {
		return nil, classify("connect rpc", err)
	}
	c := &Client{
		eth:     ethclient.NewClient(rpcClient),
		timeout: timeout,
		log:     log.With().Str("component", "chain").Logger(),
	}

	chainID, err := c.eth.ChainID(dialCtx)
	if err != nil {
		c.Close()
		return nil, classify("read chain id", err)
	}
	if cfg.ExpectedChainID != 0 && chainID.Int64() != cfg.ExpectedChainID {
		c.Close()
		return nil, clierr.New(clierr.CodeUnsupportedChain, fmt.Sprintf("rpc endpoint serves chain id %s, expected %d", chainID, cfg.ExpectedChainID))
	}
	c.chainID = chainID
	c.log.Info().Str("chain_id", chainID.String()).Msg("connected to rpc endpoint")
	return c, nil
}

func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// ChainID returns the id read at dial time.
func (c *Client) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Client) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	balance, err := c.eth.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, classify("read native balance", err)
	}
	return balance, nil
}

func (c *Client) ERC20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	callData, err := contracts.PackBalanceOf(owner)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack balanceOf", err)
	}
	out, err := c.Call(ctx, token, callData)
	if err != nil {
		return nil, err
	}
	balance, err := contracts.UnpackBalanceOf(out)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeRPC, "token returned an undecodable balanceOf response", err)
	}
	return balance, nil
}

func (c *Client) ERC20Decimals(ctx context.Context, token common.Address) (uint8, error) {
	callData, err := contracts.PackDecimals()
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInternal, "pack decimals", err)
	}
	out, err := c.Call(ctx, token, callData)
	if err != nil {
		return 0, err
	}
	decimals, err := contracts.UnpackDecimals(out)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeRPC, "token returned an undecodable decimals response", err)
	}
	return decimals, nil
}

func (c *Client) ERC20Symbol(ctx context.Context, token common.Address) (string, error) {
	callData, err := contracts.PackSymbol()
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "pack symbol", err)
	}
	out, err := c.Call(ctx, token, callData)
	if err != nil {
		return "", err
	}
	symbol, err := contracts.UnpackSymbol(out)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeRPC, "token returned an undecodable symbol response", err)
	}
	return symbol, nil
}

// Call runs eth_call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	start := time.Now()
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		c.log.Debug().Err(err).Str("to", to.Hex()).Dur("elapsed", time.Since(start)).Msg("eth_call failed")
		return nil, classify("eth_call", err)
	}
	return out, nil
}

// EstimateGas issues a single eth_estimateGas against the latest block.
func (c *Client) EstimateGas(ctx context.Context, req CallRequest) (uint64, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	arg := map[string]any{
		"from": req.From.Hex(),
		"to":   req.To.Hex(),
	}
	if len(req.Data) > 0 {
		arg["data"] = hexutil.Bytes(req.Data)
	}
	if req.Value != nil && req.Value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(req.Value)
	}

	var estimated hexutil.Uint64
	if err := c.eth.Client().CallContext(ctx, &estimated, "eth_estimateGas", arg, "latest"); err != nil {
		return 0, classify("eth_estimateGas", err)
	}
	return uint64(estimated), nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, classify("eth_gasPrice", err)
	}
	return price, nil
}
