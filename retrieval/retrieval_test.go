package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiv-ai/knowledge/store"
	"github.com/xiv-ai/knowledge/store/memory"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func seedStore(t *testing.T) store.Store {
	t.Helper()

	s := memory.NewStore()
	ctx := context.Background()

	_, err := s.Create(ctx, store.Fields{
		Title:     "Namaz vaxtları",
		Content:   "Namaz gündə beş dəfə qılınır və vaxtları günəşə görə dəyişir.",
		SourceURL: "https://example.az/namaz",
		Source:    "url",
		IsActive:  true,
	})
	require.NoError(t, err)

	_, err = s.Create(ctx, store.Fields{
		Title:     "Oruc nədir?",
		Content:   "Sual: Oruc nədir?\nCavab: Oruc dan yerindən gün batana qədər yeməkdən çəkinməkdir.",
		Source:    "manual",
		Category:  store.CategoryQA,
		Embedding: []float32{1, 0, 0},
		IsActive:  true,
	})
	require.NoError(t, err)

	_, err = s.Create(ctx, store.Fields{
		Title:    "Ümumi qaydalar",
		Content:  "Platformadan istifadə qaydaları burada təsvir olunur.",
		Source:   "manual",
		IsActive: true,
	})
	require.NoError(t, err)

	return s
}

func TestRetrieveURLTier(t *testing.T) {
	e := New(WithStore(seedStore(t)))

	result := e.Retrieve(context.Background(), "namaz vaxtları")

	assert.Contains(t, result.URLContent, "=== PRIORITY 1: VERİLƏN LİNKLƏRDƏN MƏLUMAT ===")
	assert.Contains(t, result.URLContent, "Namaz vaxtları")
	assert.Contains(t, result.URLContent, "Mənbə: https://example.az/namaz")
}

func TestRetrieveSemanticQATier(t *testing.T) {
	e := New(
		WithStore(seedStore(t)),
		WithEmbedder(&fakeEmbedder{vector: []float32{0.99, 0.1, 0}}),
	)

	result := e.Retrieve(context.Background(), "pəhriz barədə")

	assert.Contains(t, result.QAContent, "=== PRIORITY 2: SUAL-CAVAB BAZASI ===")
	assert.Contains(t, result.QAContent, "Oruc nədir?")
}

func TestRetrieveSemanticBelowThresholdFallsBackToKeyword(t *testing.T) {
	// orthogonal vector: similarity 0, far below the threshold
	e := New(
		WithStore(seedStore(t)),
		WithEmbedder(&fakeEmbedder{vector: []float32{0, 1, 0}}),
	)

	result := e.Retrieve(context.Background(), "oruc haqqında")

	assert.Contains(t, result.QAContent, "Oruc nədir?")
}

func TestRetrieveEmbedderFailureKeywordFallback(t *testing.T) {
	e := New(
		WithStore(seedStore(t)),
		WithEmbedder(&fakeEmbedder{err: errors.New("provider down")}),
	)

	result := e.Retrieve(context.Background(), "oruc haqqında")

	assert.Contains(t, result.QAContent, "Oruc nədir?")
}

func TestRetrieveGeneralTier(t *testing.T) {
	e := New(WithStore(seedStore(t)))

	result := e.Retrieve(context.Background(), "istifadə qaydaları")

	assert.Contains(t, result.GeneralContent, "=== PRIORITY 3: ÜMUMİ BİLİK BAZASI ===")
	assert.Contains(t, result.GeneralContent, "Ümumi qaydalar")
	// qa records stay out of the general tier
	assert.NotContains(t, result.GeneralContent, "Oruc nədir?")
}

func TestRetrieveBroadFallback(t *testing.T) {
	s := memory.NewStore()
	_, err := s.Create(context.Background(), store.Fields{
		Title:    "Kömək",
		Content:  "Dəstək xidməti hər gün işləyir.",
		Source:   "manual",
		Category: "help",
		IsActive: true,
	})
	require.NoError(t, err)

	e := New(WithStore(s))

	result := e.Retrieve(context.Background(), "dəstək xidməti")

	assert.Empty(t, result.URLContent)
	assert.Contains(t, result.GeneralContent, "Dəstək xidməti")
}

func TestRetrieveNothing(t *testing.T) {
	e := New(WithStore(memory.NewStore()))

	result := e.Retrieve(context.Background(), "heç nə tapılmayacaq")

	assert.True(t, result.Empty())
}
