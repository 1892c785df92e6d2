// Package pricing combines independent price sources into one quote.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/model"
	"github.com/ggonzalez94/eth-trading-mcp/internal/providers"
)

const DefaultSourceTimeout = 5 * time.Second

// Aggregator consults its sources in order and returns the first success.
// A failing or slow source is skipped, never retried.
type Aggregator struct {
	sources []providers.PriceSource
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

func NewAggregator(sources []providers.PriceSource, timeout time.Duration, log zerolog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Aggregator{
		sources: append([]providers.PriceSource(nil), sources...),
		timeout: timeout,
		log:     log.With().Str("component", "pricing").Logger(),
		now:     time.Now,
	}
}

// Sources returns the configured order.
func (a *Aggregator) Sources() []model.PriceSource {
	out := make([]model.PriceSource, 0, len(a.sources))
	for _, s := range a.sources {
		out = append(out, s.Source())
	}
	return out
}

func (a *Aggregator) Price(ctx context.Context, token model.TokenDescriptor) (model.PriceQuote, error) {
	attempts := make([]model.SourceAttempt, 0, len(a.sources))
	for _, source := range a.sources {
		if err := ctx.Err(); err != nil {
			return model.PriceQuote{}, clierr.Wrap(clierr.CodeNetwork, "price request cancelled", err)
		}

		start := a.now()
		price, err := a.attempt(ctx, source, token)
		attempt := model.SourceAttempt{
			Source:    source.Source(),
			LatencyMS: a.now().Sub(start).Milliseconds(),
		}
		if err != nil {
			attempt.Status = "error"
			attempt.Error = failureReason(err)
			attempts = append(attempts, attempt)
			a.log.Debug().Err(err).Str("source", string(source.Source())).Str("token", token.Address.Hex()).Msg("price source failed")
			continue
		}
		attempt.Status = "ok"
		attempts = append(attempts, attempt)
		return model.PriceQuote{
			Token:    token,
			USD:      price.USD,
			ETH:      price.ETH,
			Source:   source.Source(),
			Attempts: attempts,
		}, nil
	}

	names := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		names = append(names, string(attempt.Source))
	}
	return model.PriceQuote{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("no price source could price %s (tried %s)", token.Address.Hex(), strings.Join(names, ", "))).
		WithDetail("attemptedSources", names).
		WithDetail("attempts", attempts)
}

func (a *Aggregator) attempt(ctx context.Context, source providers.PriceSource, token model.TokenDescriptor) (providers.Price, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	price, err := source.Price(ctx, token)
	if err != nil {
		return providers.Price{}, err
	}
	if !price.USD.IsPositive() || !price.ETH.IsPositive() {
		return providers.Price{}, clierr.New(clierr.CodePriceUnavailable, "source returned a non-positive price")
	}
	return price, nil
}

// failureReason keeps the typed message and drops wrapped transport detail,
// which can include endpoint URLs.
func failureReason(err error) string {
	if typed, ok := clierr.As(err); ok {
		return typed.Message
	}
	return "source failed"
}
