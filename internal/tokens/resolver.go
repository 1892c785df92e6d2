// Package tokens resolves addresses into token descriptors.
package tokens

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ggonzalez94/eth-trading-mcp/internal/chain"
	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/id"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/registry"
)

type Resolver struct {
	chain  chain.Reader
	native model.TokenDescriptor
	log    zerolog.Logger
}

// NewResolver builds a resolver whose native descriptor is fixed by chainID.
func NewResolver(reader chain.Reader, chainID int64, log zerolog.Logger) *Resolver {
	asset, _ := registry.Native(chainID)
	return &Resolver{
		chain: reader,
		native: model.TokenDescriptor{
			Address:  id.NativeAddress,
			Decimals: asset.Decimals,
			Symbol:   asset.Symbol,
		},
		log: log.With().Str("component", "tokens").Logger(),
	}
}

// Native returns the hard-coded native asset descriptor.
func (r *Resolver) Native() model.TokenDescriptor {
	return r.native
}

// Resolve reads decimals and symbol concurrently. A missing symbol is not an
// error; unreadable decimals are.
func (r *Resolver) Resolve(ctx context.Context, addr common.Address) (model.TokenDescriptor, error) {
	if id.IsNative(addr) {
		return r.native, nil
	}

	var (
		decimals uint8
		symbol   string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := r.chain.ERC20Decimals(gctx, addr)
		if err != nil {
			return clierr.Wrap(clierr.CodeUnresolvableToken, fmt.Sprintf("cannot read decimals of %s", addr.Hex()), err).
				WithDetail("token", addr.Hex())
		}
		decimals = d
		return nil
	})
	g.Go(func() error {
		s, err := r.chain.ERC20Symbol(gctx, addr)
		if err != nil {
			r.log.Debug().Err(err).Str("token", addr.Hex()).Msg("symbol unavailable")
			return nil
		}
		symbol = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.TokenDescriptor{}, err
	}
	if decimals > id.MaxDecimals {
		return model.TokenDescriptor{}, clierr.New(clierr.CodeUnresolvableToken, fmt.Sprintf("token %s reports %d decimals, above the supported %d", addr.Hex(), decimals, id.MaxDecimals)).
			WithDetail("token", addr.Hex())
	}
	return model.TokenDescriptor{Address: addr, Decimals: decimals, Symbol: symbol}, nil
}

// ResolvePair resolves two tokens concurrently.
func (r *Resolver) ResolvePair(ctx context.Context, a, b common.Address) (model.TokenDescriptor, model.TokenDescriptor, error) {
	var first, second model.TokenDescriptor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		first, err = r.Resolve(gctx, a)
		return err
	})
	g.Go(func() (err error) {
		second, err = r.Resolve(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.TokenDescriptor{}, model.TokenDescriptor{}, err
	}
	return first, second, nil
}
