package headless

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/xiv-ai/knowledge/fetcher"
)

type headlessFetcher struct {
	options fetcher.Options
}

func (f *headlessFetcher) Name() string {
	return "headless"
}

func (f *headlessFetcher) Fetch(ctx context.Context, url string) (*fetcher.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.options.ReadTimeout)
	defer cancel()

	l := launcher.New().Headless(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	if len(html) == 0 {
		return nil, fmt.Errorf("empty page from %s", url)
	}

	return &fetcher.Result{
		Body:        html,
		ContentType: "text/html",
		Status:      200,
	}, nil
}

// NewFetcher builds the last-resort strategy: a headless browser render for
// pages that block plain HTTP clients or only produce content through
// JavaScript. The browser is launched per fetch and torn down afterwards,
// which is slow but keeps the common path free of a Chromium dependency.
func NewFetcher(opts ...fetcher.Option) fetcher.Fetcher {
	options := fetcher.NewOptions(opts...)

	return &headlessFetcher{
		options: options,
	}
}
