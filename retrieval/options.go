package retrieval

import (
	"context"

	"github.com/xiv-ai/knowledge/embedder"
	"github.com/xiv-ai/knowledge/store"
)

type Option func(*Options)

type Options struct {
	Store    store.Store
	Embedder embedder.Embedder
	Context  context.Context
}

func WithStore(s store.Store) Option {
	return func(o *Options) {
		o.Store = s
	}
}

// WithEmbedder enables the semantic tier. Without one, retrieval is
// keyword-only.
func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
