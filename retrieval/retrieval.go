// Package retrieval selects knowledge for a chat query in three priority
// tiers: content crawled from URLs first, then curated Q&A pairs, then
// everything else. Each tier degrades independently, so a failing embedding
// provider or an empty tier never takes the others down with it.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xiv-ai/knowledge/store"
)

const (
	urlLimit     = 3
	qaLimit      = 2
	generalLimit = 2
	broadLimit   = 5

	// semanticThreshold is the minimum cosine similarity for a Q&A pair
	// to match on meaning alone.
	semanticThreshold = 0.82
)

// Context is the retrieved knowledge for one query, one formatted block
// per tier. Empty strings mean the tier found nothing.
type Context struct {
	URLContent     string
	QAContent      string
	GeneralContent string
}

// Empty reports whether no tier found anything.
func (c Context) Empty() bool {
	return len(c.URLContent) == 0 && len(c.QAContent) == 0 && len(c.GeneralContent) == 0
}

type Engine struct {
	options Options
}

func New(opts ...Option) *Engine {
	options := NewOptions(opts...)

	if options.Store == nil {
		detail := "retrieval requires a store"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &Engine{
		options: options,
	}
}

// Retrieve gathers knowledge for a query. Tier failures are logged and
// surface as empty blocks; when every tier is empty a broad keyword pass
// over the whole store fills the general block as a last resort.
func (e *Engine) Retrieve(ctx context.Context, query string) Context {
	result := Context{
		URLContent:     e.urlTier(ctx, query),
		QAContent:      e.qaTier(ctx, query),
		GeneralContent: e.generalTier(ctx, query),
	}

	if result.Empty() {
		result.GeneralContent = e.broadFallback(ctx, query)
	}

	return result
}

func (e *Engine) urlTier(ctx context.Context, query string) string {
	records, err := e.options.Store.SearchKeyword(ctx, store.KeywordFilter{
		Query:         query,
		RequireSource: true,
		Limit:         urlLimit,
	})
	if err != nil {
		slog.WarnContext(ctx, "url tier failed", "error", err)
		return ""
	}

	return formatBlock(1, "VERİLƏN LİNKLƏRDƏN MƏLUMAT", records)
}

// qaTier tries a semantic match first and falls back to keywords when no
// pair clears the similarity threshold.
func (e *Engine) qaTier(ctx context.Context, query string) string {
	if match := e.semanticQA(ctx, query); match != nil {
		return formatBlock(2, "SUAL-CAVAB BAZASI", []store.Record{*match})
	}

	records, err := e.options.Store.SearchKeyword(ctx, store.KeywordFilter{
		Query:    query,
		Category: store.CategoryQA,
		Limit:    qaLimit,
	})
	if err != nil {
		slog.WarnContext(ctx, "qa tier failed", "error", err)
		return ""
	}

	return formatBlock(2, "SUAL-CAVAB BAZASI", records)
}

func (e *Engine) semanticQA(ctx context.Context, query string) *store.Record {
	if e.options.Embedder == nil {
		return nil
	}

	vector, err := e.options.Embedder.Embed(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "query embedding failed, keyword fallback", "error", err)
		return nil
	}

	matches, err := e.options.Store.SearchEmbedding(ctx, vector, store.CategoryQA, 1)
	if err != nil {
		slog.WarnContext(ctx, "semantic search failed, keyword fallback", "error", err)
		return nil
	}

	if len(matches) == 0 || matches[0].Similarity < semanticThreshold {
		return nil
	}

	record := matches[0].Record

	slog.DebugContext(ctx, "semantic qa match", "title", record.Title, "similarity", matches[0].Similarity)

	return &record
}

func (e *Engine) generalTier(ctx context.Context, query string) string {
	records, err := e.options.Store.SearchKeyword(ctx, store.KeywordFilter{
		Query:           query,
		ExcludeSource:   true,
		ExcludeCategory: store.CategoryQA,
		Limit:           generalLimit,
	})
	if err != nil {
		slog.WarnContext(ctx, "general tier failed", "error", err)
		return ""
	}

	return formatBlock(3, "ÜMUMİ BİLİK BAZASI", records)
}

func (e *Engine) broadFallback(ctx context.Context, query string) string {
	records, err := e.options.Store.SearchKeyword(ctx, store.KeywordFilter{
		Query: query,
		Limit: broadLimit,
	})
	if err != nil {
		slog.WarnContext(ctx, "broad fallback failed", "error", err)
		return ""
	}

	return formatBlock(3, "ÜMUMİ BİLİK BAZASI", records)
}

func formatBlock(priority int, label string, records []store.Record) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "=== PRIORITY %d: %s ===\n", priority, label)

	for _, r := range records {
		fmt.Fprintf(&b, "\nBaşlıq: %s\n", r.Title)
		fmt.Fprintf(&b, "Məzmun: %s\n", r.Content)
		if len(r.SourceURL) > 0 {
			fmt.Fprintf(&b, "Mənbə: %s\n", r.SourceURL)
		}
		if len(r.Category) > 0 {
			fmt.Fprintf(&b, "Kateqoriya: %s\n", r.Category)
		}
	}

	return strings.TrimSpace(b.String())
}
