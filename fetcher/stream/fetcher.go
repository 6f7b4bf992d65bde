package stream

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/xiv-ai/knowledge/fetcher"
)

type streamFetcher struct {
	options fetcher.Options
	client  *http.Client
}

func (f *streamFetcher) Name() string {
	return "stream"
}

func (f *streamFetcher) Fetch(ctx context.Context, url string) (*fetcher.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.options.UserAgent)

	rsp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", rsp.StatusCode)
	}

	// Read in chunks so a slow or endless stream stays bounded by the
	// client timeout and the body cap, rather than buffering all at once.
	var sb strings.Builder
	buf := make([]byte, 32*1024)
	var total int64

	for {
		n, err := rsp.Body.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > f.options.MaxBodyBytes {
				sb.Write(buf[:n-int(total-f.options.MaxBodyBytes)])
				break
			}
			sb.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty body from %s", url)
	}

	return &fetcher.Result{
		Body:        sb.String(),
		ContentType: rsp.Header.Get("Content-Type"),
		Status:      rsp.StatusCode,
	}, nil
}

// NewFetcher builds the second fetch strategy: a plain streaming client with
// the same timeout philosophy as the browser-profile strategy but none of
// its header dressing.
func NewFetcher(opts ...fetcher.Option) fetcher.Fetcher {
	options := fetcher.NewOptions(opts...)

	client := &http.Client{
		Timeout: options.ReadTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: options.InsecureTLS,
			},
		},
	}

	return &streamFetcher{
		options: options,
		client:  client,
	}
}
