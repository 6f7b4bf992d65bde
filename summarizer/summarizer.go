// Package summarizer condenses extracted page text before storage. The
// level knob runs from 1 (shortest) to 5 (keep everything): low levels use
// local paragraph selection, middle levels delegate to a completion client
// under a strict time budget, and every path degrades to a sentence-aware
// truncation rather than failing.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xiv-ai/knowledge/completion"
)

// LevelFull keeps the text as extracted.
const LevelFull = 5

const (
	noopThresholdRunes = 400
	minParagraphChars  = 50
	completionWindow   = 2000
	completionMinReply = 50
)

type Summarizer struct {
	options Options
}

func New(opts ...Option) *Summarizer {
	options := NewOptions(opts...)

	return &Summarizer{
		options: options,
	}
}

// target returns the rune budget for a level given the source length.
func target(level, sourceRunes int) int {
	switch level {
	case 1:
		return min(400, sourceRunes*25/100)
	case 2:
		return min(600, sourceRunes*40/100)
	case 3:
		return min(1000, sourceRunes*50/100)
	default:
		return min(1500, sourceRunes*75/100)
	}
}

// Summarize condenses text to the given level. Level 5 and short inputs
// pass through untouched. Summarize never fails: when the completion path
// is unavailable or over budget, the local heuristics take over.
func (s *Summarizer) Summarize(ctx context.Context, text string, level int) string {
	if level >= LevelFull || utf8.RuneCountInString(text) <= noopThresholdRunes {
		return text
	}

	text = strings.TrimSpace(text)

	sourceRunes := utf8.RuneCountInString(text)
	if sourceRunes <= noopThresholdRunes {
		return text
	}

	if level < 1 {
		level = 1
	}

	budget := target(level, sourceRunes)

	if level <= 2 {
		return s.selectParagraphs(text, budget)
	}

	return s.delegate(ctx, text, budget)
}

// selectParagraphs keeps the longest paragraphs, on the theory that in
// article prose length tracks substance. Paragraphs that survive the
// minimum-length filter pass through untouched when they already fit the
// budget; otherwise the longest are kept first and emitted in that order.
func (s *Summarizer) selectParagraphs(text string, budget int) string {
	var paragraphs []string
	total := 0
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) >= minParagraphChars {
			paragraphs = append(paragraphs, p)
			total += utf8.RuneCountInString(p)
		}
	}

	if len(paragraphs) == 0 {
		return smartTruncate(text, budget)
	}

	if total <= budget {
		return strings.Join(paragraphs, "\n\n")
	}

	sort.SliceStable(paragraphs, func(a, b int) bool {
		return utf8.RuneCountInString(paragraphs[a]) > utf8.RuneCountInString(paragraphs[b])
	})

	var selected []string
	used := 0
	for _, p := range paragraphs {
		n := utf8.RuneCountInString(p)
		if used+n > budget*90/100 {
			continue
		}
		selected = append(selected, p)
		used += n
	}

	if len(selected) == 0 {
		return smartTruncate(text, budget)
	}

	return strings.Join(selected, "\n\n")
}

// delegate asks the completion client for a summary, bounded by the time
// budget, and falls back to truncation on any failure or oversize reply.
func (s *Summarizer) delegate(ctx context.Context, text string, budget int) string {
	if s.options.Completion == nil {
		return smartTruncate(text, budget)
	}

	window := text
	if len(window) > completionWindow {
		window = window[:completionWindow]
		if idx := strings.LastIndex(window, " "); idx > 0 {
			window = window[:idx]
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.options.Budget)
	defer cancel()

	rsp, err := s.options.Completion.Chat(ctx, []completion.Message{
		{
			Role:    completion.RoleSystem,
			Content: "Mətni qısa və dəqiq şəkildə xülasə et. Əsas faktları saxla.",
		},
		{
			Role:    completion.RoleUser,
			Content: fmt.Sprintf("Bu mətni maksimum %d simvola xülasə et:\n\n%s", budget, window),
		},
	}, budget)
	if err != nil {
		slog.WarnContext(ctx, "completion summary failed, truncating locally", "error", err)
		return smartTruncate(text, budget)
	}

	summary := strings.TrimSpace(rsp.Content)
	if utf8.RuneCountInString(summary) <= completionMinReply {
		slog.WarnContext(ctx, "completion summary too short, truncating locally", "runes", utf8.RuneCountInString(summary))
		return smartTruncate(text, budget)
	}

	if utf8.RuneCountInString(summary) > budget {
		return smartTruncate(summary, budget)
	}

	return summary
}

// smartTruncate cuts text at 90% of the limit, preferring to break at a
// sentence end past 70% of the cut point, then a line break past 80%, then
// a word boundary past 85%, and marks any non-sentence cut with an
// ellipsis.
func smartTruncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit*90/100]

	if idx := lastIndexFrom(cut, '.', len(cut)*70/100); idx >= 0 {
		return strings.TrimSpace(string(cut[:idx+1]))
	}

	if idx := lastIndexFrom(cut, '\n', len(cut)*80/100); idx >= 0 {
		return strings.TrimSpace(string(cut[:idx])) + "..."
	}

	if idx := lastIndexFrom(cut, ' ', len(cut)*85/100); idx >= 0 {
		return strings.TrimSpace(string(cut[:idx])) + "..."
	}

	return strings.TrimSpace(string(cut)) + "..."
}

// lastIndexFrom finds the last occurrence of r in runes at or after floor.
func lastIndexFrom(runes []rune, r rune, floor int) int {
	for i := len(runes) - 1; i >= floor; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
