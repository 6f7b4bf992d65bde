package summarizer

import (
	"context"
	"time"

	"github.com/xiv-ai/knowledge/completion"
)

type Option func(*Options)

type Options struct {
	Completion completion.Client
	Budget     time.Duration
	Context    context.Context
}

// WithCompletion sets the chat client used for the higher summary levels.
// Without one, every level falls back to the local heuristics.
func WithCompletion(client completion.Client) Option {
	return func(o *Options) {
		o.Completion = client
	}
}

// WithBudget caps how long a single completion call may take before the
// summarizer gives up and truncates locally.
func WithBudget(budget time.Duration) Option {
	return func(o *Options) {
		o.Budget = budget
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Budget:  5 * time.Second,
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
