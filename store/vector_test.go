package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
}

func TestCosineDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
}

func TestKeywordMatches(t *testing.T) {
	text := "Namaz vaxtları haqqında ətraflı məlumat"

	assert.True(t, KeywordMatches(text, "namaz vaxtları haqqında"))
	assert.True(t, KeywordMatches(text, "NAMAZ"))
	assert.True(t, KeywordMatches(text, "yoxdur məlumat"))

	assert.False(t, KeywordMatches(text, "oruc"))
	assert.False(t, KeywordMatches(text, "ab"))
	assert.False(t, KeywordMatches(text, "   "))
}
