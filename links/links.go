// Package links discovers same-site links in page HTML and filters them
// down to pages worth crawling.
package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skipSchemes are anchor targets that never lead to a page.
var skipSchemes = []string{"javascript:", "mailto:", "tel:"}

// Discover returns the absolute same-host links of a page, in document
// order, with fragments stripped and duplicates removed. A page that fails
// to parse simply has no links.
func Discover(pageHTML, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || len(base.Host) == 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var found []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if len(href) == 0 || strings.HasPrefix(href, "#") {
			return
		}

		lower := strings.ToLower(href)
		for _, scheme := range skipSchemes {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host {
			return
		}

		resolved.Fragment = ""

		link := resolved.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}

		found = append(found, link)
	})

	return found
}
