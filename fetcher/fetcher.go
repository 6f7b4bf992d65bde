package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnreachable is returned once every strategy in a chain has failed.
// During a site crawl the caller treats it as "skip this page".
var ErrUnreachable = errors.New("source unreachable")

// Result is a successful fetch. Body is the raw response text before any
// encoding repair.
type Result struct {
	Body        string
	ContentType string
	Status      int
	Strategy    string
}

// Fetcher retrieves the raw content of a URL. A fetch succeeds only on a
// 2xx status (after bounded redirects) with a non-empty body.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Result, error)
}

type chain struct {
	strategies []Fetcher
}

func (c *chain) Name() string {
	return "chain"
}

func (c *chain) Fetch(ctx context.Context, url string) (*Result, error) {
	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := strategy.Fetch(ctx, url)
		if err != nil {
			slog.WarnContext(ctx, "fetch strategy failed", "strategy", strategy.Name(), "url", url, "error", err)
			continue
		}

		slog.InfoContext(
			ctx,
			"fetch strategy succeeded",
			"strategy", strategy.Name(),
			"url", url,
			"bytes", len(result.Body),
			"content_type", result.ContentType,
		)

		result.Strategy = strategy.Name()

		return result, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnreachable, url)
}

// NewChain tries each strategy in order and returns the first success.
// Strategies run strictly in sequence, never raced.
func NewChain(strategies ...Fetcher) Fetcher {
	return &chain{strategies: strategies}
}
