package service

import (
	"context"

	knowledge "github.com/xiv-ai/knowledge"
)

type Option func(*Options)

type Options struct {
	Pipeline []knowledge.Option
	Context  context.Context
}

// WithPipeline sets the options every training run's pipeline is built
// from. Progress and stop wiring is appended per run.
func WithPipeline(opts ...knowledge.Option) Option {
	return func(o *Options) {
		o.Pipeline = opts
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
