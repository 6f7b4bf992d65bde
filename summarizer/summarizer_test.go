package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiv-ai/knowledge/completion"
)

type fakeCompletion struct {
	reply string
	err   error
	calls int
	delay time.Duration
}

func (f *fakeCompletion) Chat(ctx context.Context, messages []completion.Message, maxTokens int) (*completion.Response, error) {
	f.calls++

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	return &completion.Response{Content: f.reply}, nil
}

func longText(paragraphs int) string {
	p := strings.Repeat("Bu cümlə mətnin əsas hissəsini təşkil edir və kifayət qədər uzundur. ", 3)
	parts := make([]string, paragraphs)
	for i := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "\n\n")
}

func TestSummarizeShortTextUntouched(t *testing.T) {
	s := New()
	in := "Qısa mətn."

	assert.Equal(t, in, s.Summarize(context.Background(), in, 1))
}

func TestSummarizeLevelFullUntouched(t *testing.T) {
	s := New()
	in := longText(10)

	assert.Equal(t, in, s.Summarize(context.Background(), in, LevelFull))
}

func TestSummarizeNoOpPreservesPadding(t *testing.T) {
	s := New()

	padded := "  " + longText(10) + "\n"
	assert.Equal(t, padded, s.Summarize(context.Background(), padded, LevelFull))

	short := "  Qısa mətn.  "
	assert.Equal(t, short, s.Summarize(context.Background(), short, 1))
}

func TestSummarizeLevelOneShrinks(t *testing.T) {
	s := New()
	in := longText(10)

	out := s.Summarize(context.Background(), in, 1)

	assert.Less(t, utf8.RuneCountInString(out), utf8.RuneCountInString(in))
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 400+3)
}

func TestSummarizeLevelsMonotonic(t *testing.T) {
	s := New()
	in := longText(12)

	l1 := utf8.RuneCountInString(s.Summarize(context.Background(), in, 1))
	l2 := utf8.RuneCountInString(s.Summarize(context.Background(), in, 2))
	l5 := utf8.RuneCountInString(s.Summarize(context.Background(), in, 5))

	assert.LessOrEqual(t, l1, l2)
	assert.Less(t, l2, l5)
}

func TestSummarizeKeepsLongestParagraphFirst(t *testing.T) {
	shorter := "Qısa abzas: " + strings.Repeat("az ", 36)
	longest := "Əsas abzas: " + strings.Repeat("mətn ", 78)
	fillerA := strings.Repeat("doldurucu ", 80)
	fillerB := strings.Repeat("əlavə ", 116)

	in := strings.Join([]string{shorter, fillerA, longest, fillerB}, "\n\n")

	out := New().Summarize(context.Background(), in, 2)

	require.Contains(t, out, "Əsas abzas")
	require.Contains(t, out, "Qısa abzas")
	assert.Less(t, strings.Index(out, "Əsas abzas"), strings.Index(out, "Qısa abzas"))
}

func TestSummarizeWithinTargetSkipsSelection(t *testing.T) {
	survivor := strings.TrimSpace(strings.Repeat("uzun mətn ", 55))

	parts := []string{survivor}
	for i := 0; i < 30; i++ {
		parts = append(parts, strings.TrimSpace(strings.Repeat("qeyd ", 9)))
	}
	in := strings.Join(parts, "\n\n")

	out := New().Summarize(context.Background(), in, 2)

	assert.Equal(t, survivor, out)
}

func TestSummarizeDelegatesForMiddleLevels(t *testing.T) {
	fake := &fakeCompletion{
		reply: strings.Repeat("Xülasə cümləsi burada yer alır. ", 3),
	}
	s := New(WithCompletion(fake))

	out := s.Summarize(context.Background(), longText(10), 3)

	assert.Equal(t, 1, fake.calls)
	assert.Contains(t, out, "Xülasə cümləsi")
}

func TestSummarizeCompletionFailureFallsBack(t *testing.T) {
	fake := &fakeCompletion{err: errors.New("model unavailable")}
	s := New(WithCompletion(fake))
	in := longText(10)

	out := s.Summarize(context.Background(), in, 3)

	assert.Equal(t, 1, fake.calls)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 1000+3)
}

func TestSummarizeCompletionTimeoutFallsBack(t *testing.T) {
	fake := &fakeCompletion{
		reply: strings.Repeat("gec gələn cavab ", 10),
		delay: 200 * time.Millisecond,
	}
	s := New(WithCompletion(fake), WithBudget(20*time.Millisecond))
	in := longText(10)

	out := s.Summarize(context.Background(), in, 4)

	assert.NotEmpty(t, out)
	assert.NotContains(t, out, "gec gələn")
}

func TestSummarizeTinyReplyFallsBack(t *testing.T) {
	fake := &fakeCompletion{reply: "qısa"}
	s := New(WithCompletion(fake))
	in := longText(10)

	out := s.Summarize(context.Background(), in, 3)

	assert.NotEqual(t, "qısa", out)
	assert.Greater(t, utf8.RuneCountInString(out), 50)
}

func TestSummarizeWithoutCompletionTruncates(t *testing.T) {
	s := New()
	in := longText(10)

	out := s.Summarize(context.Background(), in, 4)

	require.NotEmpty(t, out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 1500+3)
}

func TestSmartTruncatePrefersSentenceEnd(t *testing.T) {
	text := strings.Repeat("Birinci cümlə burada bitir. ", 20)

	out := smartTruncate(text, 100)

	assert.True(t, strings.HasSuffix(out, "."), "got %q", out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 100)
}

func TestSmartTruncateWordBoundary(t *testing.T) {
	text := strings.Repeat("söz ", 100)

	out := smartTruncate(text, 50)

	assert.True(t, strings.HasSuffix(out, "..."), "got %q", out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 53)
}

func TestSmartTruncateCutsBeforeLimit(t *testing.T) {
	out := smartTruncate(strings.Repeat("a", 1000), 100)

	assert.LessOrEqual(t, utf8.RuneCountInString(out), 93)
	assert.True(t, strings.HasSuffix(out, "..."), "got %q", out)
}

func TestSmartTruncateShortInputUntouched(t *testing.T) {
	assert.Equal(t, "abc", smartTruncate("abc", 10))
}
