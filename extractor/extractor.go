// Package extractor turns raw HTML into clean article text.
package extractor

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xiv-ai/knowledge/normalize"
)

// Result is the distilled form of one page.
type Result struct {
	Title    string
	Content  string
	Metadata map[string]string
}

// chrome is everything that is structure or decoration rather than content.
var chrome = []string{
	"script", "style", "nav", "header", "footer", "aside", "iframe", "noscript",
}

// chromePatterns match class and id fragments of menus, ads and banners.
var chromePatterns = []string{
	"menu", "navigation", "sidebar", "ads", "advertisement", "cookie",
}

// containers is the priority order for locating the main content block.
// The first one that yields enough text wins.
var containers = []string{
	"main",
	"article",
	"[role=main]",
	".content",
	".main-content",
	".article-body",
	".post-content",
	"#content",
	"#main",
	"body",
}

// titleSeparators split a page title from its site-name suffix.
var titleSeparators = []string{" - ", " | ", " :: ", " / ", " — "}

const minContentRunes = 50

// Extract parses page HTML and returns its title, main text and metadata.
// It never fails: when the document cannot be parsed, a regex stripper
// produces a rougher rendition instead.
func Extract(pageHTML, baseURL string) *Result {
	ctx := context.Background()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		slog.WarnContext(ctx, "html parse failed, using fallback stripper", "url", baseURL, "error", err)
		return fallbackExtract(pageHTML, baseURL)
	}

	metadata := extractMetadata(doc)
	title := extractTitle(doc, baseURL)

	doc.Find(strings.Join(chrome, ", ")).Remove()
	for _, pattern := range chromePatterns {
		doc.Find(fmt.Sprintf("[class*=%q], [id*=%q]", pattern, pattern)).Remove()
	}

	var content string
	for _, sel := range containers {
		text := collapseWhitespace(doc.Find(sel).First().Text())
		if utf8.RuneCountInString(text) >= minContentRunes {
			content = text
			break
		}
	}

	if len(content) == 0 {
		content = collapseWhitespace(doc.Text())
	}

	// Extraction can splice fragments that re-expose mojibake the fetch
	// pass already saw, so the text is normalized once more on the way out.
	content = normalize.Normalize(content)

	return &Result{
		Title:    title,
		Content:  content,
		Metadata: metadata,
	}
}

func extractTitle(doc *goquery.Document, baseURL string) string {
	candidates := []string{
		collapseWhitespace(doc.Find("title").First().Text()),
		collapseWhitespace(doc.Find("h1").First().Text()),
		strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", "")),
	}

	for _, c := range candidates {
		if title, ok := acceptTitle(c); ok {
			return normalize.Normalize(title)
		}
	}

	return fmt.Sprintf("Imported content - %s", hostOf(baseURL))
}

// acceptTitle keeps titles between 5 and 200 runes, trimming a site-name
// suffix when the part before the separator is clearly the longer half.
func acceptTitle(title string) (string, bool) {
	n := utf8.RuneCountInString(title)
	if n <= 5 || n > 200 {
		return "", false
	}

	for _, sep := range titleSeparators {
		idx := strings.LastIndex(title, sep)
		if idx < 0 {
			continue
		}
		prefix := strings.TrimSpace(title[:idx])
		suffix := strings.TrimSpace(title[idx+len(sep):])
		if utf8.RuneCountInString(prefix) > utf8.RuneCountInString(suffix) && utf8.RuneCountInString(prefix) > 5 {
			return prefix, true
		}
	}

	return title, true
}

func extractMetadata(doc *goquery.Document) map[string]string {
	metadata := map[string]string{}

	for _, name := range []string{"description", "keywords", "author"} {
		if v := strings.TrimSpace(doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).AttrOr("content", "")); len(v) > 0 {
			metadata[name] = v
		}
	}

	if lang := strings.TrimSpace(doc.Find("html").AttrOr("lang", "")); len(lang) > 0 {
		metadata["lang"] = lang
	}

	return metadata
}

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleBlockPattern  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
)

// fallbackExtract strips markup with regular expressions. It produces
// noisier text than the DOM path but cannot fail.
func fallbackExtract(pageHTML, baseURL string) *Result {
	text := scriptBlockPattern.ReplaceAllString(pageHTML, " ")
	text = styleBlockPattern.ReplaceAllString(text, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = normalize.Normalize(collapseWhitespace(text))

	return &Result{
		Title:    fmt.Sprintf("Imported content - %s", hostOf(baseURL)),
		Content:  text,
		Metadata: map[string]string{},
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || len(u.Host) == 0 {
		return raw
	}
	return u.Host
}
