package knowledge

import (
	"context"
	"time"

	"github.com/xiv-ai/knowledge/completion"
	"github.com/xiv-ai/knowledge/embedder"
	"github.com/xiv-ai/knowledge/fetcher"
	"github.com/xiv-ai/knowledge/prompt"
	"github.com/xiv-ai/knowledge/store"
)

type Option func(*Options)

type Options struct {
	Fetcher      fetcher.Fetcher
	Store        store.Store
	Embedder     embedder.Embedder
	Completion   completion.Client
	Prompt       prompt.Config
	SummaryLevel int
	MaxPages     int
	MaxDepth     int
	Delay        time.Duration
	Progress     func(percent int)
	ShouldStop   func() bool
	Context      context.Context
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

// WithEmbedder enables vector storage and semantic retrieval. Without one
// the pipeline runs keyword-only.
func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

// WithCompletion sets the chat client used for answering and for the
// delegated summary levels.
func WithCompletion(c completion.Client) Option {
	return func(o *Options) {
		o.Completion = c
	}
}

// WithPrompt replaces the default answering policy.
func WithPrompt(config prompt.Config) Option {
	return func(o *Options) {
		o.Prompt = config
	}
}

// WithSummaryLevel sets how aggressively page content is condensed before
// storage, from 1 (shortest) to 5 (keep everything).
func WithSummaryLevel(level int) Option {
	return func(o *Options) {
		o.SummaryLevel = level
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

func WithDelay(d time.Duration) Option {
	return func(o *Options) {
		o.Delay = d
	}
}

func WithProgress(fn func(percent int)) Option {
	return func(o *Options) {
		o.Progress = fn
	}
}

func WithShouldStop(fn func() bool) Option {
	return func(o *Options) {
		o.ShouldStop = fn
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Prompt:       prompt.DefaultConfig(),
		SummaryLevel: 5,
		MaxPages:     2000,
		MaxDepth:     3,
		Delay:        500 * time.Millisecond,
		Context:      context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
