package fetcher

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRedirects   int
	InsecureTLS    bool
	MaxBodyBytes   int64
	Context        context.Context
}

func WithUserAgent(ua string) Option {
	return func(o *Options) {
		o.UserAgent = ua
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = d
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = d
	}
}

func WithMaxRedirects(n int) Option {
	return func(o *Options) {
		o.MaxRedirects = n
	}
}

// WithInsecureTLS toggles certificate verification. Ingestion targets often
// serve expired or self-signed certificates; accepting them is a deliberate
// trust trade-off, scoped to outbound content fetches only.
func WithInsecureTLS(insecure bool) Option {
	return func(o *Options) {
		o.InsecureTLS = insecure
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(o *Options) {
		o.MaxBodyBytes = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ConnectTimeout: 60 * time.Second,
		ReadTimeout:    120 * time.Second,
		MaxRedirects:   10,
		InsecureTLS:    true,
		MaxBodyBytes:   5 << 20,
		Context:        context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
