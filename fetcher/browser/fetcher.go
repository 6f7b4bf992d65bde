package browser

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/xiv-ai/knowledge/fetcher"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type browserFetcher struct {
	options fetcher.Options
	client  *http.Client
}

func (f *browserFetcher) Name() string {
	return "browser-profile"
}

func (f *browserFetcher) Fetch(ctx context.Context, url string) (*fetcher.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.options.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "az,tr;q=0.9,en;q=0.8")

	rsp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", rsp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(rsp.Body, f.options.MaxBodyBytes))
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("empty body from %s", url)
	}

	return &fetcher.Result{
		Body:        string(body),
		ContentType: rsp.Header.Get("Content-Type"),
		Status:      rsp.StatusCode,
	}, nil
}

// NewFetcher builds the primary fetch strategy: a browser-profile HTTP
// client with realistic headers, bounded redirect following, generous
// timeouts, and permissive TLS (see fetcher.WithInsecureTLS for the
// trade-off).
func NewFetcher(opts ...fetcher.Option) fetcher.Fetcher {
	options := fetcher.NewOptions(opts...)

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: options.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: options.ConnectTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: options.InsecureTLS,
		},
	}

	client := &http.Client{
		Timeout:   options.ReadTimeout,
		Transport: otelhttp.NewTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= options.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", options.MaxRedirects)
			}
			return nil
		},
	}

	return &browserFetcher{
		options: options,
		client:  client,
	}
}
