package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiv-ai/knowledge/fetcher"
	"github.com/xiv-ai/knowledge/store"
	"github.com/xiv-ai/knowledge/store/memory"
	"github.com/xiv-ai/knowledge/summarizer"
)

// fakeFetcher serves canned pages by URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Name() string {
	return "fake"
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetcher.Result, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, fetcher.ErrUnreachable
	}
	return &fetcher.Result{Body: body, ContentType: "text/html", Status: 200}, nil
}

type fakeEmbedder struct {
	err   error
	calls int
	texts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func articleBody(title, text string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><main><p>%s</p></main></body></html>`, title, text)
}

func longAzText() string {
	return strings.Repeat("Namaz İslamın beş əsasından biridir və hər gün qılınır. ", 11)
}

func newTestCrawler(t *testing.T, pages map[string]string, opts ...Option) (*Crawler, store.Store) {
	t.Helper()

	s := memory.NewStore()

	base := []Option{
		WithFetcher(&fakeFetcher{pages: pages}),
		WithStore(s),
		WithSummarizer(summarizer.New()),
		WithEmbedder(&fakeEmbedder{}),
		WithDelay(time.Millisecond),
	}

	return New(append(base, opts...)...), s
}

func TestTrainSingleEndToEnd(t *testing.T) {
	body := `<html><head><title>Namaz haqqında</title></head><body><main><p>` + longAzText() + `</p></main></body></html>`
	c, s := newTestCrawler(t, map[string]string{
		"https://example.com/namaz": body,
	})

	recordId, err := c.TrainSingle(context.Background(), "https://example.com/namaz", summarizer.LevelFull)
	require.NoError(t, err)
	require.NotEmpty(t, recordId)

	record, err := s.FindBySourceURL(context.Background(), "https://example.com/namaz")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Namaz haqqında", record.Title)
	assert.Contains(t, record.Content, "beş əsasından biridir")
	assert.Equal(t, "https://example.com/namaz", record.SourceURL)
	assert.Equal(t, ModeSingle, record.Metadata["training_mode"])
	assert.NotEmpty(t, record.Embedding)
	assert.True(t, record.IsActive)
}

func TestTrainSingleDuplicateRejected(t *testing.T) {
	pages := map[string]string{
		"https://example.com/namaz": articleBody("Namaz haqqında", longAzText()),
	}
	c, _ := newTestCrawler(t, pages)

	_, err := c.TrainSingle(context.Background(), "https://example.com/namaz", summarizer.LevelFull)
	require.NoError(t, err)

	_, err = c.TrainSingle(context.Background(), "https://example.com/namaz", summarizer.LevelFull)
	assert.ErrorIs(t, err, ErrAlreadyTrained)
}

func TestTrainSingleUnreachable(t *testing.T) {
	c, _ := newTestCrawler(t, map[string]string{})

	_, err := c.TrainSingle(context.Background(), "https://example.com/missing", summarizer.LevelFull)
	assert.ErrorIs(t, err, fetcher.ErrUnreachable)
}

func TestTrainSingleTooShort(t *testing.T) {
	c, _ := newTestCrawler(t, map[string]string{
		"https://example.com/stub": articleBody("Stub", "az məzmun"),
	})

	_, err := c.TrainSingle(context.Background(), "https://example.com/stub", summarizer.LevelFull)
	assert.ErrorIs(t, err, ErrContentTooShort)
}

func sitePages() map[string]string {
	home := `<html><head><title>Ana səhifə</title></head><body>
<a href="/namaz">Namaz</a>
<a href="/oruc">Oruc</a>
<a href="/report.pdf">PDF</a>
<a href="https://other.az/away">External</a>
<main><p>` + longAzText() + `</p></main></body></html>`

	return map[string]string{
		"https://example.az":       home,
		"https://example.az/namaz": articleBody("Namaz vaxtları", longAzText()),
		"https://example.az/oruc":  articleBody("Oruc qaydaları", longAzText()),
	}
}

func TestTrainSiteCrawlsInScopeLinks(t *testing.T) {
	c, s := newTestCrawler(t, sitePages())

	result, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Trained)
	assert.False(t, result.Stopped)

	count, err := s.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// the pdf and the external link never got fetched
	for _, page := range result.Pages {
		assert.NotContains(t, page.URL, ".pdf")
		assert.NotContains(t, page.URL, "other.az")
	}
}

func TestTrainSitePageBudget(t *testing.T) {
	c, _ := newTestCrawler(t, sitePages(), WithMaxPages(1))

	result, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Trained)
}

func TestTrainSiteContainsPageFailures(t *testing.T) {
	pages := sitePages()
	pages["https://example.az/namaz"] = articleBody("Stub", "qısa")

	c, _ := newTestCrawler(t, pages)

	result, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Trained)

	var failed int
	for _, page := range result.Pages {
		if page.Err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestTrainSiteStops(t *testing.T) {
	var progress []int
	stopped := false

	c, _ := newTestCrawler(t, sitePages(),
		WithProgress(func(p int) { progress = append(progress, p) }),
		WithShouldStop(func() bool {
			if stopped {
				return true
			}
			stopped = true
			return false
		}),
	)

	result, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)

	assert.True(t, result.Stopped)
	assert.Equal(t, 1, result.Trained)

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestTrainSiteProgressBand(t *testing.T) {
	var progress []int

	c, _ := newTestCrawler(t, sitePages(),
		WithProgress(func(p int) { progress = append(progress, p) }),
	)

	_, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)

	require.NotEmpty(t, progress)
	for _, p := range progress[:len(progress)-1] {
		assert.GreaterOrEqual(t, p, 2)
		assert.LessOrEqual(t, p, 95)
	}
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestTrainSiteUpdatesExisting(t *testing.T) {
	c, s := newTestCrawler(t, sitePages())

	_, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)

	result, err := c.TrainSite(context.Background(), "https://example.az", summarizer.LevelFull)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Trained)

	count, err := s.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	record, err := s.FindBySourceURL(context.Background(), "https://example.az/namaz")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.Metadata["update_count"])
}

func TestTrainSiteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := newTestCrawler(t, sitePages())

	_, err := c.TrainSite(ctx, "https://example.az", summarizer.LevelFull)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainText(t *testing.T) {
	c, s := newTestCrawler(t, nil)

	recordId, err := c.TrainText(context.Background(), "Qaydalar", strings.Repeat("əl ilə daxil edilən mətn ", 4))
	require.NoError(t, err)
	require.NotEmpty(t, recordId)

	record, err := s.FindManualByTitle(context.Background(), "Qaydalar")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Empty(t, record.SourceURL)
	assert.Equal(t, "manual", record.Source)
	assert.Equal(t, "text", record.Metadata["training_method"])
}

func TestTrainTextTooShort(t *testing.T) {
	c, _ := newTestCrawler(t, nil)

	_, err := c.TrainText(context.Background(), "Qeyd", "qısa")
	assert.ErrorIs(t, err, ErrContentTooShort)
}

func TestTrainTextUpdatesByTitle(t *testing.T) {
	c, s := newTestCrawler(t, nil)

	first, err := c.TrainText(context.Background(), "Qaydalar", strings.Repeat("köhnə mətn burada ", 3))
	require.NoError(t, err)

	second, err := c.TrainText(context.Background(), "Qaydalar", strings.Repeat("təzə mətn burada ", 3))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	record, err := s.FindManualByTitle(context.Background(), "Qaydalar")
	require.NoError(t, err)
	assert.Contains(t, record.Content, "təzə mətn")
}

func TestTrainQA(t *testing.T) {
	c, s := newTestCrawler(t, nil)

	recordId, err := c.TrainQA(context.Background(), "Namaz neçə dəfə qılınır?", "Gündə beş dəfə qılınır.")
	require.NoError(t, err)
	require.NotEmpty(t, recordId)

	record, err := s.FindManualByTitle(context.Background(), "Namaz neçə dəfə qılınır?")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, store.CategoryQA, record.Category)
	assert.Contains(t, record.Content, "Sual: Namaz neçə dəfə qılınır?")
	assert.Contains(t, record.Content, "Cavab: Gündə beş dəfə qılınır.")
	assert.NotEmpty(t, record.Embedding)
}

func TestTrainQARequiresBothHalves(t *testing.T) {
	c, _ := newTestCrawler(t, nil)

	_, err := c.TrainQA(context.Background(), "Sual?", "")
	assert.Error(t, err)
}

func TestEmbeddingInputIsStoredContent(t *testing.T) {
	emb := &fakeEmbedder{}
	pages := map[string]string{
		"https://example.com/namaz": articleBody("Namaz haqqında", longAzText()),
	}

	s := memory.NewStore()
	c := New(
		WithFetcher(&fakeFetcher{pages: pages}),
		WithStore(s),
		WithSummarizer(summarizer.New()),
		WithEmbedder(emb),
		WithDelay(time.Millisecond),
	)

	_, err := c.TrainSingle(context.Background(), "https://example.com/namaz", summarizer.LevelFull)
	require.NoError(t, err)

	record, err := s.FindBySourceURL(context.Background(), "https://example.com/namaz")
	require.NoError(t, err)
	require.NotNil(t, record)

	require.Len(t, emb.texts, 1)
	assert.Equal(t, record.Content, emb.texts[0])
	assert.NotContains(t, emb.texts[0], record.Title)

	content := strings.Repeat("əl ilə daxil edilən mətn ", 4)
	_, err = c.TrainText(context.Background(), "Qaydalar", content)
	require.NoError(t, err)

	require.Len(t, emb.texts, 2)
	assert.Equal(t, strings.TrimSpace(content), emb.texts[1])

	_, err = c.TrainQA(context.Background(), "Namaz neçə dəfə qılınır?", "Gündə beş dəfə qılınır.")
	require.NoError(t, err)

	require.Len(t, emb.texts, 3)
	assert.Equal(t, "Namaz neçə dəfə qılınır?\nGündə beş dəfə qılınır.", emb.texts[2])
}

func TestEmbeddingFailureDoesNotBlockTraining(t *testing.T) {
	pages := map[string]string{
		"https://example.com/namaz": articleBody("Namaz haqqında", longAzText()),
	}

	s := memory.NewStore()
	c := New(
		WithFetcher(&fakeFetcher{pages: pages}),
		WithStore(s),
		WithSummarizer(summarizer.New()),
		WithEmbedder(&fakeEmbedder{err: errors.New("provider down")}),
		WithDelay(time.Millisecond),
	)

	_, err := c.TrainSingle(context.Background(), "https://example.com/namaz", summarizer.LevelFull)
	require.NoError(t, err)

	record, err := s.FindBySourceURL(context.Background(), "https://example.com/namaz")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Empty(t, record.Embedding)
}
