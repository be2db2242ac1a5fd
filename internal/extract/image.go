package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedhub/internal/domain/entity"
)

// Image returns the first usable image URL for the entry, trying in order:
// media:content, media:thumbnail, the first enclosure, the item-level image,
// then an embedded <img> in the content and finally in the description.
// Relative candidates are resolved against base (normally the entry link).
// It returns "" when every step fails.
func Image(e entity.Entry, base string) string {
	baseURL := parseBase(base)

	for _, list := range [][]string{e.MediaContent, e.MediaThumbnails} {
		for _, candidate := range list {
			if u := resolveImage(candidate, baseURL); u != "" {
				return u
			}
		}
	}
	if len(e.Enclosures) > 0 {
		if u := resolveImage(e.Enclosures[0], baseURL); u != "" {
			return u
		}
	}
	if u := resolveImage(e.Image, baseURL); u != "" {
		return u
	}
	if u := EmbeddedImage(e.Content, base); u != "" {
		return u
	}
	return EmbeddedImage(e.Description, base)
}

// EmbeddedImage returns the src of the first usable <img> in an HTML fragment.
func EmbeddedImage(fragment, base string) string {
	if !strings.Contains(fragment, "<img") && !strings.Contains(fragment, "<IMG") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	baseURL := parseBase(base)
	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if u := resolveImage(src, baseURL); u != "" {
			found = u
			return false
		}
		return true
	})
	return found
}

// ResolveImageURL normalizes a single candidate the same way the chain does.
func ResolveImageURL(raw, base string) string {
	return resolveImage(raw, parseBase(base))
}

func parseBase(base string) *url.URL {
	if base == "" {
		return nil
	}
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// resolveImage rejects empty and data: candidates and anything that does not
// end up as an absolute http(s) URL.
func resolveImage(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}
