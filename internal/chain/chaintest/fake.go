// Package chaintest provides an in-memory chain.Reader for workflow tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

// Token is a fake ERC-20 contract.
type Token struct {
	Decimals    uint8
	Symbol      string
	Balances    map[common.Address]*big.Int
	DecimalsErr error
	SymbolErr   error
}

// CallHandler answers eth_call for contracts that are not fake tokens.
type CallHandler func(to common.Address, data []byte) ([]byte, error)

// Reader records every call so tests can assert on network usage.
type Reader struct {
	ChainIDValue   int64
	NativeBalances map[common.Address]*big.Int
	Tokens         map[common.Address]*Token
	OnCall         CallHandler
	OnEstimateGas  func(req chain.CallRequest) (uint64, error)
	GasPriceValue  *big.Int

	mu    sync.Mutex
	calls []string
}

var _ chain.Reader = (*Reader)(nil)

func New() *Reader {
	return &Reader{
		ChainIDValue:   1,
		NativeBalances: map[common.Address]*big.Int{},
		Tokens:         map[common.Address]*Token{},
	}
}

func (r *Reader) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

// Calls returns the recorded method names in call order.
func (r *Reader) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *Reader) CallCount() int {
	return len(r.Calls())
}

func (r *Reader) ChainID(context.Context) (*big.Int, error) {
	r.record("ChainID")
	return big.NewInt(r.ChainIDValue), nil
}

func (r *Reader) NativeBalance(_ context.Context, owner common.Address) (*big.Int, error) {
	r.record("NativeBalance")
	if balance, ok := r.NativeBalances[owner]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (r *Reader) token(addr common.Address) (*Token, error) {
	token, ok := r.Tokens[addr]
	if !ok {
		return nil, clierr.New(clierr.CodeRPC, fmt.Sprintf("eth_call: no contract at %s", addr.Hex()))
	}
	return token, nil
}

func (r *Reader) ERC20Balance(_ context.Context, tokenAddr, owner common.Address) (*big.Int, error) {
	r.record("ERC20Balance")
	token, err := r.token(tokenAddr)
	if err != nil {
		return nil, err
	}
	if balance, ok := token.Balances[owner]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (r *Reader) ERC20Decimals(_ context.Context, tokenAddr common.Address) (uint8, error) {
	r.record("ERC20Decimals")
	token, err := r.token(tokenAddr)
	if err != nil {
		return 0, err
	}
	if token.DecimalsErr != nil {
		return 0, token.DecimalsErr
	}
	return token.Decimals, nil
}

func (r *Reader) ERC20Symbol(_ context.Context, tokenAddr common.Address) (string, error) {
	r.record("ERC20Symbol")
	token, err := r.token(tokenAddr)
	if err != nil {
		return "", err
	}
	if token.SymbolErr != nil {
		return "", token.SymbolErr
	}
	return token.Symbol, nil
}

func (r *Reader) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	r.record("Call")
	if r.OnCall == nil {
		return nil, clierr.New(clierr.CodeRPC, "eth_call: no handler")
	}
	return r.OnCall(to, data)
}

func (r *Reader) EstimateGas(_ context.Context, req chain.CallRequest) (uint64, error) {
	r.record("EstimateGas")
	if r.OnEstimateGas == nil {
		return 0, clierr.New(clierr.CodeRPC, "eth_estimateGas: no handler")
	}
	return r.OnEstimateGas(req)
}

func (r *Reader) GasPrice(context.Context) (*big.Int, error) {
	r.record("GasPrice")
	if r.GasPriceValue == nil {
		return nil, clierr.New(clierr.CodeRPC, "eth_gasPrice: unavailable")
	}
	return new(big.Int).Set(r.GasPriceValue), nil
}

// Revert builds the error a node returns for a reverted eth_call.
func Revert(reason string) error {
	return clierr.New(clierr.CodeRPC, "eth_call: execution reverted: "+reason).
		WithDetail("reverted", true).
		WithDetail("revertReason", reason)
}

// Method decodes the selector of data against contract.
func Method(contract abi.ABI, data []byte) (*abi.Method, []any, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("calldata too short")
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

// Output packs return values for method of contract.
func Output(contract abi.ABI, method string, values ...any) []byte {
	out, err := contract.Methods[method].Outputs.Pack(values...)
	if err != nil {
		panic(err)
	}
	return out
}
