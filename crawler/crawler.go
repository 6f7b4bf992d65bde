// Package crawler orchestrates ingestion: it walks a site breadth-first,
// runs each page through fetch, normalize, extract and summarize, and
// upserts the result into the knowledge store. It also carries the
// single-page, manual-text and Q&A training paths, which share the same
// storage rules without the traversal.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xiv-ai/knowledge/extractor"
	"github.com/xiv-ai/knowledge/links"
	"github.com/xiv-ai/knowledge/normalize"
	"github.com/xiv-ai/knowledge/store"
)

var (
	// ErrContentTooShort rejects pages and manual entries below the
	// minimum useful length.
	ErrContentTooShort = errors.New("content too short to train on")

	// ErrAlreadyTrained rejects re-training a URL in single-page mode
	// when the existing record also came from single-page mode.
	ErrAlreadyTrained = errors.New("url already trained in single-page mode")
)

const (
	minPageRunes   = 50
	minManualRunes = 20

	// progress while a crawl is running stays inside this band so the
	// caller's UI never shows a premature 0 or 100.
	progressFloor = 2
	progressCeil  = 95

	ModeSingle   = "single"
	ModeFullSite = "full_site"
)

// PageResult records the outcome of one page within a site crawl.
type PageResult struct {
	URL      string
	RecordId string
	Err      error
}

// SiteResult is the overall outcome of a site crawl. A crawl that ingested
// zero pages is still a completed crawl; the caller decides how to present
// that.
type SiteResult struct {
	Trained int
	Pages   []PageResult
	Stopped bool
}

type task struct {
	url   string
	depth int
}

type Crawler struct {
	options Options
}

func New(opts ...Option) *Crawler {
	options := NewOptions(opts...)

	if options.Fetcher == nil || options.Store == nil || options.Summarizer == nil {
		detail := "crawler requires a fetcher, a store and a summarizer"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &Crawler{
		options: options,
	}
}

// TrainSite walks the site at siteURL breadth-first and ingests every
// in-scope page. Per-page failures are logged and contained; the crawl
// itself only fails on invalid input or context cancellation.
func (c *Crawler) TrainSite(ctx context.Context, siteURL string, level int) (*SiteResult, error) {
	scope, err := links.NewScope(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site url %q: %w", siteURL, err)
	}

	result := &SiteResult{}

	queue := []task{{url: siteURL, depth: 0}}
	seen := map[string]struct{}{}
	discovered := 1
	processed := 0

	for len(queue) > 0 && result.Trained < c.options.MaxPages {
		if err := ctx.Err(); err != nil {
			c.emitProgress(100)
			return result, err
		}

		if c.options.ShouldStop != nil && c.options.ShouldStop() {
			slog.InfoContext(ctx, "crawl stopped on request", "url", siteURL, "trained", result.Trained)
			result.Stopped = true
			c.emitProgress(100)
			return result, nil
		}

		item := queue[0]
		queue = queue[1:]

		if _, ok := seen[item.url]; ok {
			continue
		}
		seen[item.url] = struct{}{}

		page := PageResult{URL: item.url}

		body, recordId, err := c.ingestPage(ctx, item.url, level, ModeFullSite)
		processed++
		if err != nil {
			slog.WarnContext(ctx, "page skipped", "url", item.url, "error", err)
			page.Err = err
		} else {
			page.RecordId = recordId
			result.Trained++
		}
		result.Pages = append(result.Pages, page)

		c.emitProgress(runningProgress(processed, discovered, len(queue)))

		// a page can fail ingestion (an index page is often too short)
		// and still be the way to the pages that matter
		if item.depth < c.options.MaxDepth && len(body) > 0 {
			for _, link := range links.Discover(body, item.url) {
				if _, ok := seen[link]; ok {
					continue
				}
				if !scope.Allows(link) {
					continue
				}
				queue = append(queue, task{url: link, depth: item.depth + 1})
				discovered++
			}
		}

		if len(queue) > 0 {
			c.sleep(ctx)
		}
	}

	c.emitProgress(100)

	slog.InfoContext(ctx, "crawl finished", "url", siteURL, "trained", result.Trained, "processed", processed)

	return result, nil
}

// TrainSingle ingests exactly one URL. Unlike the site crawl, failures
// propagate: the caller is a synchronous admin operation that wants them.
func (c *Crawler) TrainSingle(ctx context.Context, pageURL string, level int) (string, error) {
	_, recordId, err := c.ingestPage(ctx, pageURL, level, ModeSingle)
	if err != nil {
		return "", err
	}

	c.emitProgress(100)

	return recordId, nil
}

// TrainText ingests a manually supplied document. Manual records live in
// their own key space: they are deduplicated by title among records with
// no source URL, never against crawled pages.
func (c *Crawler) TrainText(ctx context.Context, title, content string) (string, error) {
	title = strings.TrimSpace(title)
	content = normalize.Normalize(strings.TrimSpace(content))

	if len(title) == 0 {
		return "", errors.New("title is required")
	}

	if utf8.RuneCountInString(content) < minManualRunes {
		return "", ErrContentTooShort
	}

	existing, err := c.options.Store.FindManualByTitle(ctx, title)
	if err != nil {
		return "", err
	}

	metadata := map[string]any{
		"training_method": "text",
		"content_quality": qualityTier(content),
	}

	embedding := c.embed(ctx, content)

	if existing != nil {
		return c.update(ctx, existing, content, metadata, embedding)
	}

	created, err := c.options.Store.Create(ctx, store.Fields{
		Title:     title,
		Content:   content,
		Source:    "manual",
		Language:  "az",
		Metadata:  metadata,
		Embedding: embedding,
		IsActive:  true,
	})
	if err != nil {
		return "", err
	}

	return created.Id, nil
}

// TrainQA ingests a question/answer pair. The question doubles as the
// record title and the embedding covers both halves, so retrieval can
// match semantically on either.
func (c *Crawler) TrainQA(ctx context.Context, question, answer string) (string, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)

	if len(question) == 0 || len(answer) == 0 {
		return "", errors.New("both question and answer are required")
	}

	content := fmt.Sprintf("Sual: %s\nCavab: %s", question, answer)

	existing, err := c.options.Store.FindManualByTitle(ctx, question)
	if err != nil {
		return "", err
	}

	metadata := map[string]any{
		"training_method": "qa",
	}

	embedding := c.embed(ctx, question+"\n"+answer)

	if existing != nil {
		return c.update(ctx, existing, content, metadata, embedding)
	}

	created, err := c.options.Store.Create(ctx, store.Fields{
		Title:     question,
		Content:   content,
		Source:    "manual",
		Category:  store.CategoryQA,
		Language:  "az",
		Metadata:  metadata,
		Embedding: embedding,
		IsActive:  true,
	})
	if err != nil {
		return "", err
	}

	return created.Id, nil
}

// ingestPage runs the per-page pipeline and upserts the outcome. It
// returns the raw page body so the site crawl can discover links without
// fetching twice.
func (c *Crawler) ingestPage(ctx context.Context, pageURL string, level int, mode string) (string, string, error) {
	fetched, err := c.options.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	body := normalize.Normalize(fetched.Body)

	extracted := extractor.Extract(body, pageURL)

	content := c.options.Summarizer.Summarize(ctx, extracted.Content, level)

	if utf8.RuneCountInString(content) < minPageRunes {
		return body, "", fmt.Errorf("%w: %q has %d characters", ErrContentTooShort, pageURL, utf8.RuneCountInString(content))
	}

	existing, err := c.options.Store.FindBySourceURL(ctx, pageURL)
	if err != nil {
		return body, "", err
	}

	if existing != nil && mode == ModeSingle && existing.Metadata["training_mode"] == ModeSingle {
		return body, "", fmt.Errorf("%w: %s", ErrAlreadyTrained, pageURL)
	}

	metadata := map[string]any{
		"training_method": "url",
		"training_mode":   mode,
		"content_quality": qualityTier(content),
	}
	for k, v := range extracted.Metadata {
		metadata["page_"+k] = v
	}

	embedding := c.embed(ctx, content)

	if existing != nil {
		recordId, err := c.update(ctx, existing, content, metadata, embedding)
		return body, recordId, err
	}

	created, err := c.options.Store.Create(ctx, store.Fields{
		Title:     extracted.Title,
		Content:   content,
		SourceURL: pageURL,
		Source:    "url",
		Language:  pageLanguage(extracted.Metadata),
		Metadata:  metadata,
		Embedding: embedding,
		IsActive:  true,
	})
	if err != nil {
		return body, "", err
	}

	return body, created.Id, nil
}

func (c *Crawler) update(ctx context.Context, existing *store.Record, content string, metadata map[string]any, embedding []float32) (string, error) {
	// metadata round-trips through JSON in the postgres store, so the
	// counter can come back as either an int or a float64
	updates := 1
	switch prev := existing.Metadata["update_count"].(type) {
	case int:
		updates = prev + 1
	case float64:
		updates = int(prev) + 1
	}
	metadata["update_count"] = updates

	if _, err := c.options.Store.Update(ctx, existing.Id, store.Fields{
		Content:   content,
		Metadata:  metadata,
		Embedding: embedding,
	}); err != nil {
		return "", err
	}

	return existing.Id, nil
}

// embed is best effort: a missing embedder or a provider failure degrades
// the record to keyword-only retrieval rather than failing ingestion.
func (c *Crawler) embed(ctx context.Context, text string) []float32 {
	if c.options.Embedder == nil {
		return nil
	}

	vector, err := c.options.Embedder.Embed(ctx, text)
	if err != nil {
		slog.WarnContext(ctx, "embedding failed, storing without vector", "error", err)
		return nil
	}

	return vector
}

func (c *Crawler) emitProgress(percent int) {
	if c.options.Progress != nil {
		c.options.Progress(percent)
	}
}

func (c *Crawler) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.options.Delay):
	}
}

// runningProgress estimates completion against the larger of what has been
// discovered and what is known to remain, clamped away from both edges.
func runningProgress(processed, discovered, queued int) int {
	denominator := discovered
	if processed+queued > denominator {
		denominator = processed + queued
	}
	if denominator == 0 {
		return progressFloor
	}

	percent := processed * 100 / denominator

	if percent < progressFloor {
		return progressFloor
	}
	if percent > progressCeil {
		return progressCeil
	}
	return percent
}

func qualityTier(content string) string {
	switch n := utf8.RuneCountInString(content); {
	case n >= 1000:
		return "high"
	case n >= 300:
		return "medium"
	default:
		return "basic"
	}
}

func pageLanguage(metadata map[string]string) string {
	if lang, ok := metadata["lang"]; ok && len(lang) > 0 {
		if idx := strings.IndexAny(lang, "-_"); idx > 0 {
			return lang[:idx]
		}
		return lang
	}
	return "az"
}
