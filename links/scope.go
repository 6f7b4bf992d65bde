package links

import (
	"net/url"
	"path"
	"strings"
)

// skipExtensions are file types that carry no extractable page text.
var skipExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".zip": {}, ".rar": {}, ".exe": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {},
	".ico": {}, ".webp": {},
	".css": {}, ".js": {}, ".json": {}, ".xml": {},
}

// skipSegments are path segments of admin areas and asset trees.
var skipSegments = map[string]struct{}{
	"admin": {}, "wp-admin": {}, "wp-content": {}, "assets": {},
	"images": {}, "js": {}, "css": {}, "fonts": {}, "media": {},
	"uploads": {}, "download": {},
}

// Scope decides which discovered links belong in a crawl.
type Scope struct {
	scheme string
	host   string
}

// NewScope builds a scope rooted at the site of the given URL.
func NewScope(siteURL string) (*Scope, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}

	return &Scope{
		scheme: u.Scheme,
		host:   u.Host,
	}, nil
}

// Allows reports whether a link is a same-site content page.
func (s *Scope) Allows(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	if u.Host != s.host {
		return false
	}

	if len(s.scheme) > 0 && u.Scheme != s.scheme {
		return false
	}

	if _, ok := skipExtensions[strings.ToLower(path.Ext(u.Path))]; ok {
		return false
	}

	for _, segment := range strings.Split(strings.ToLower(u.Path), "/") {
		if _, ok := skipSegments[segment]; ok {
			return false
		}
	}

	return true
}
