package chain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

const revertErrorCode = 3

// classify maps transport and node failures onto NetworkError or RpcError.
// Network messages never include the endpoint, which may embed credentials.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		out := clierr.Wrap(clierr.CodeRPC, fmt.Sprintf("%s: %s", op, rpcErr.Error()), err).
			WithDetail("rpcCode", rpcErr.ErrorCode())
		if reason, reverted := revertReason(err, rpcErr); reverted {
			out.WithDetail("reverted", true)
			if reason != "" {
				out.WithDetail("revertReason", reason)
			}
		}
		return out
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return clierr.Wrap(clierr.CodeNetwork, fmt.Sprintf("%s: rpc endpoint returned http %d", op, httpErr.StatusCode), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return clierr.Wrap(clierr.CodeNetwork, fmt.Sprintf("%s: rpc request timed out", op), err)
	}
	if errors.Is(err, context.Canceled) {
		return clierr.Wrap(clierr.CodeNetwork, fmt.Sprintf("%s: rpc request cancelled", op), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return clierr.Wrap(clierr.CodeNetwork, fmt.Sprintf("%s: rpc request timed out", op), err)
	}
	return clierr.Wrap(clierr.CodeNetwork, fmt.Sprintf("%s: rpc endpoint unreachable", op), err)
}

func revertReason(err error, rpcErr rpc.Error) (string, bool) {
	message := rpcErr.Error()
	reverted := rpcErr.ErrorCode() == revertErrorCode || strings.Contains(message, "execution reverted")
	if !reverted {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason, true
				}
			}
		}
	}
	if _, after, found := strings.Cut(message, "execution reverted:"); found {
		return strings.TrimSpace(after), true
	}
	return "", true
}

// IsReverted reports whether err is a node error caused by an EVM revert.
func IsReverted(err error) bool {
	typed, ok := clierr.As(err)
	if !ok || typed.Code != clierr.CodeRPC {
		return false
	}
	reverted, _ := typed.Details["reverted"].(bool)
	return reverted
}

// RevertReason returns the decoded revert string, if the node supplied one.
func RevertReason(err error) string {
	typed, ok := clierr.As(err)
	if !ok {
		return ""
	}
	reason, _ := typed.Details["revertReason"].(string)
	return reason
}
