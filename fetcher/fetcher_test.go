package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (s *stubFetcher) Name() string {
	return s.name
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestChainFirstStrategyWins(t *testing.T) {
	first := &stubFetcher{name: "first", result: &Result{Body: "<html>ok</html>", Status: 200}}
	second := &stubFetcher{name: "second"}

	chain := NewChain(first, second)

	result, err := chain.Fetch(context.Background(), "https://example.az")
	require.NoError(t, err)

	assert.Equal(t, "first", result.Strategy)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChainFallsThrough(t *testing.T) {
	first := &stubFetcher{name: "first", err: errors.New("HTTP 403")}
	second := &stubFetcher{name: "second", err: errors.New("timeout")}
	third := &stubFetcher{name: "third", result: &Result{Body: "<html>ok</html>", Status: 200}}

	chain := NewChain(first, second, third)

	result, err := chain.Fetch(context.Background(), "https://example.az")
	require.NoError(t, err)

	assert.Equal(t, "third", result.Strategy)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChainExhaustedIsUnreachable(t *testing.T) {
	first := &stubFetcher{name: "first", err: errors.New("HTTP 500")}
	second := &stubFetcher{name: "second", err: errors.New("connection refused")}

	chain := NewChain(first, second)

	_, err := chain.Fetch(context.Background(), "https://example.az")

	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestChainHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubFetcher{name: "first", result: &Result{Body: "ok", Status: 200}}

	chain := NewChain(first)

	_, err := chain.Fetch(ctx, "https://example.az")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, first.calls)
}
