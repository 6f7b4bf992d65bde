// Package knowledge ties the ingestion pipeline and the retrieval side
// together behind one facade. Callers construct a Pipeline with a fetcher,
// a store and the providers they want, train it on URLs, sites, manual
// text or Q&A pairs, and ask it questions.
package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/xiv-ai/knowledge/completion"
	"github.com/xiv-ai/knowledge/crawler"
	"github.com/xiv-ai/knowledge/prompt"
	"github.com/xiv-ai/knowledge/retrieval"
	"github.com/xiv-ai/knowledge/summarizer"
)

const answerMaxTokens = 1024

type Pipeline struct {
	options   Options
	crawler   *crawler.Crawler
	retrieval *retrieval.Engine
}

func New(opts ...Option) *Pipeline {
	options := NewOptions(opts...)

	if options.Fetcher == nil || options.Store == nil {
		detail := "pipeline requires a fetcher and a store"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	sum := summarizer.New(
		summarizer.WithCompletion(options.Completion),
	)

	c := crawler.New(
		crawler.WithFetcher(options.Fetcher),
		crawler.WithStore(options.Store),
		crawler.WithSummarizer(sum),
		crawler.WithEmbedder(options.Embedder),
		crawler.WithMaxPages(options.MaxPages),
		crawler.WithMaxDepth(options.MaxDepth),
		crawler.WithDelay(options.Delay),
		crawler.WithProgress(options.Progress),
		crawler.WithShouldStop(options.ShouldStop),
	)

	r := retrieval.New(
		retrieval.WithStore(options.Store),
		retrieval.WithEmbedder(options.Embedder),
	)

	return &Pipeline{
		options:   options,
		crawler:   c,
		retrieval: r,
	}
}

// TrainURL ingests a single page. Failures propagate to the caller.
func (p *Pipeline) TrainURL(ctx context.Context, pageURL string) (string, error) {
	return p.crawler.TrainSingle(ctx, pageURL, p.options.SummaryLevel)
}

// TrainSite crawls a site breadth-first and ingests every in-scope page.
func (p *Pipeline) TrainSite(ctx context.Context, siteURL string) (*crawler.SiteResult, error) {
	return p.crawler.TrainSite(ctx, siteURL, p.options.SummaryLevel)
}

// TrainText ingests a manually supplied document.
func (p *Pipeline) TrainText(ctx context.Context, title, content string) (string, error) {
	return p.crawler.TrainText(ctx, title, content)
}

// TrainQA ingests a curated question/answer pair.
func (p *Pipeline) TrainQA(ctx context.Context, question, answer string) (string, error) {
	return p.crawler.TrainQA(ctx, question, answer)
}

// Retrieve returns the knowledge the pipeline would ground an answer in,
// without calling the model.
func (p *Pipeline) Retrieve(ctx context.Context, query string) retrieval.Context {
	return p.retrieval.Retrieve(ctx, query)
}

// Answer retrieves knowledge for the query, assembles the system prompt
// under the configured policy and asks the completion client.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if len(query) == 0 {
		return "", errors.New("query is required")
	}

	if p.options.Completion == nil {
		return "", errors.New("no completion client configured")
	}

	knowledge := p.retrieval.Retrieve(ctx, query)

	system := prompt.Assemble(knowledge, query, p.options.Prompt)

	rsp, err := p.options.Completion.Chat(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: system},
		{Role: completion.RoleUser, Content: query},
	}, answerMaxTokens)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "answered", "query_len", len(query), "tokens", rsp.Tokens, "knowledge_found", !knowledge.Empty())

	return rsp.Content, nil
}
