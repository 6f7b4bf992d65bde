package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xiv-ai/knowledge/store"
)

// embeddingCandidateWindow caps how many recent records a semantic search
// considers.
const embeddingCandidateWindow = 500

type memoryStore struct {
	options store.Options
	records map[string]store.Record
	mtx     sync.RWMutex
}

func (s *memoryStore) FindBySourceURL(ctx context.Context, url string) (*store.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, rec := range s.records {
		if rec.SourceURL != "" && rec.SourceURL == url {
			cpy := cloneRecord(rec)
			return &cpy, nil
		}
	}

	return nil, nil
}

func (s *memoryStore) FindManualByTitle(ctx context.Context, title string) (*store.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, rec := range s.records {
		if rec.SourceURL == "" && strings.EqualFold(rec.Title, title) {
			cpy := cloneRecord(rec)
			return &cpy, nil
		}
	}

	return nil, nil
}

func (s *memoryStore) Create(ctx context.Context, f store.Fields) (*store.Record, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now().UTC()

	rec := store.Record{
		Id:        uuid.New().String(),
		Title:     f.Title,
		Content:   f.Content,
		SourceURL: f.SourceURL,
		Source:    f.Source,
		Category:  f.Category,
		Language:  f.Language,
		Metadata:  maps.Clone(f.Metadata),
		Embedding: cloneVector(f.Embedding),
		IsActive:  f.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}

	s.records[rec.Id] = rec

	cpy := cloneRecord(rec)
	return &cpy, nil
}

func (s *memoryStore) Update(ctx context.Context, id string, f store.Fields) (*store.Record, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}

	if len(f.Title) > 0 {
		rec.Title = f.Title
	}
	if len(f.Content) > 0 {
		rec.Content = f.Content
	}
	if len(f.SourceURL) > 0 {
		rec.SourceURL = f.SourceURL
	}
	if len(f.Source) > 0 {
		rec.Source = f.Source
	}
	if len(f.Category) > 0 {
		rec.Category = f.Category
	}
	if len(f.Language) > 0 {
		rec.Language = f.Language
	}
	if f.Metadata != nil {
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		} else {
			rec.Metadata = maps.Clone(rec.Metadata)
		}
		maps.Copy(rec.Metadata, f.Metadata)
	}
	if f.Embedding != nil {
		rec.Embedding = cloneVector(f.Embedding)
	}

	rec.UpdatedAt = time.Now().UTC()

	s.records[id] = rec

	cpy := cloneRecord(rec)
	return &cpy, nil
}

func (s *memoryStore) SearchKeyword(ctx context.Context, filter store.KeywordFilter) ([]store.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var hits []store.Record

	for _, rec := range s.records {
		if !rec.IsActive {
			continue
		}
		if filter.RequireSource && rec.SourceURL == "" {
			continue
		}
		if filter.ExcludeSource && rec.SourceURL != "" {
			continue
		}
		if len(filter.Category) > 0 && rec.Category != filter.Category {
			continue
		}
		if len(filter.ExcludeCategory) > 0 && rec.Category == filter.ExcludeCategory {
			continue
		}
		if !store.KeywordMatches(rec.Title+"\n"+rec.Content, filter.Query) {
			continue
		}
		hits = append(hits, cloneRecord(rec))
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].UpdatedAt.After(hits[j].UpdatedAt)
	})

	if filter.Limit > 0 && len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}

	return hits, nil
}

func (s *memoryStore) SearchEmbedding(ctx context.Context, vector []float32, category string, limit int) ([]store.Match, error) {
	if limit < 1 || len(vector) == 0 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	candidates := make([]store.Record, 0, len(s.records))
	for _, rec := range s.records {
		if !rec.IsActive || len(rec.Embedding) == 0 {
			continue
		}
		if len(category) > 0 && rec.Category != category {
			continue
		}
		candidates = append(candidates, rec)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})

	if len(candidates) > embeddingCandidateWindow {
		candidates = candidates[:embeddingCandidateWindow]
	}

	matches := make([]store.Match, 0, len(candidates))
	for _, rec := range candidates {
		matches = append(matches, store.Match{
			Record:     cloneRecord(rec),
			Similarity: store.Cosine(vector, rec.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (s *memoryStore) CountActive(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rec.IsActive {
			count++
		}
	}

	return count, nil
}

func (s *memoryStore) CountByCategory(ctx context.Context, category string) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rec.IsActive && rec.Category == category {
			count++
		}
	}

	return count, nil
}

func cloneRecord(rec store.Record) store.Record {
	rec.Metadata = maps.Clone(rec.Metadata)
	rec.Embedding = cloneVector(rec.Embedding)
	return rec
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	cpy := make([]float32, len(v))
	copy(cpy, v)
	return cpy
}

func NewStore(opts ...store.Option) store.Store {
	options := store.NewOptions(opts...)

	return &memoryStore{
		options: options,
		records: map[string]store.Record{},
		mtx:     sync.RWMutex{},
	}
}
