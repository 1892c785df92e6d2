package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
)

// snake_case spellings accepted for each camelCase argument.
var aliases = map[string]string{
	"wallet_address": "walletAddress",
	"token_address":  "tokenAddress",
	"from_token":     "fromToken",
	"to_token":       "toToken",
	"slippage_bps":   "slippageBps",
}

type arguments map[string]any

// normalizeArgs folds aliases onto their canonical names and rejects keys the
// tool does not declare.
func normalizeArgs(raw map[string]any, allowed ...string) (arguments, error) {
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}
	out := make(arguments, len(raw))
	var unknown []string
	for key, value := range raw {
		name := key
		if canonical, ok := aliases[key]; ok {
			name = canonical
		}
		if !known[name] {
			unknown = append(unknown, key)
			continue
		}
		if _, dup := out[name]; dup {
			return nil, clierr.New(clierr.CodeInvalidArguments, fmt.Sprintf("argument %s given more than once", name)).WithField(name)
		}
		out[name] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, clierr.New(clierr.CodeInvalidArguments, "unknown argument "+strings.Join(unknown, ", ")).WithField(unknown[0])
	}
	return out, nil
}

func (a arguments) present(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

func (a arguments) str(name string, required bool) (string, error) {
	if !a.present(name) {
		if required {
			return "", missing(name)
		}
		return "", nil
	}
	s, ok := a[name].(string)
	if !ok {
		return "", clierr.New(clierr.CodeInvalidArguments, name+" must be a string").WithField(name)
	}
	s = strings.TrimSpace(s)
	if s == "" && required {
		return "", missing(name)
	}
	return s, nil
}

// address parses an address argument. An absent optional address is the
// native asset.
func (a arguments) address(name string, required bool) (common.Address, error) {
	s, err := a.str(name, required)
	if err != nil {
		return common.Address{}, err
	}
	if s == "" {
		return id.NativeAddress, nil
	}
	addr, err := id.ParseAddress(s)
	if err != nil {
		if typed, ok := clierr.As(err); ok {
			typed.Message = name + ": " + typed.Message
			typed.WithField(name)
		}
		return common.Address{}, err
	}
	return addr, nil
}

func (a arguments) integer(name string, fallback int64) (int64, error) {
	if !a.present(name) {
		return fallback, nil
	}
	invalid := clierr.New(clierr.CodeInvalidArguments, name+" must be an integer").WithField(name)
	switch v := a[name].(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, invalid
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, invalid
		}
		return int64(f), nil
	default:
		return 0, invalid
	}
}

func missing(name string) error {
	return clierr.New(clierr.CodeInvalidArguments, name+" is required").WithField(name)
}
