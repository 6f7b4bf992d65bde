package crawler

import (
	"context"
	"time"

	"github.com/xiv-ai/knowledge/embedder"
	"github.com/xiv-ai/knowledge/fetcher"
	"github.com/xiv-ai/knowledge/store"
	"github.com/xiv-ai/knowledge/summarizer"
)

type Option func(*Options)

type Options struct {
	Fetcher    fetcher.Fetcher
	Store      store.Store
	Summarizer *summarizer.Summarizer
	Embedder   embedder.Embedder
	MaxPages   int
	MaxDepth   int
	Delay      time.Duration
	Progress   func(percent int)
	ShouldStop func() bool
	Context    context.Context
}

func WithFetcher(f fetcher.Fetcher) Option {
	return func(o *Options) {
		o.Fetcher = f
	}
}

func WithStore(s store.Store) Option {
	return func(o *Options) {
		o.Store = s
	}
}

func WithSummarizer(s *summarizer.Summarizer) Option {
	return func(o *Options) {
		o.Summarizer = s
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func WithMaxPages(n int) Option {
	return func(o *Options) {
		o.MaxPages = n
	}
}

func WithMaxDepth(n int) Option {
	return func(o *Options) {
		o.MaxDepth = n
	}
}

// WithDelay sets the pause between pages of a site crawl.
func WithDelay(d time.Duration) Option {
	return func(o *Options) {
		o.Delay = d
	}
}

// WithProgress registers a callback receiving crawl progress percentages.
func WithProgress(fn func(percent int)) Option {
	return func(o *Options) {
		o.Progress = fn
	}
}

// WithShouldStop registers a predicate polled between pages. When it
// returns true the crawl winds down, keeping what it has.
func WithShouldStop(fn func() bool) Option {
	return func(o *Options) {
		o.ShouldStop = fn
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxPages: 2000,
		MaxDepth: 3,
		Delay:    500 * time.Millisecond,
		Context:  context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
