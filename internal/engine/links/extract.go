// Package links turns raw, possibly redirect-wrapped or HTML-escaped link strings
// into canonical external video IDs and clean direct URLs.
//
// Every function here is pure and total: bad input degrades to "" instead of an error.
package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&#34;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&apos;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&#x2F;", "/",
	"&#x2f;", "/",
	"&#47;", "/",
)

// UnescapeHTMLEntities reverses the small set of entities that CMS editors and
// feed exporters leave in stored links. Repeats until nothing changes, so
// "&amp;amp;" collapses fully and the function is idempotent.
func UnescapeHTMLEntities(s string) string {
	for {
		next := entityReplacer.Replace(s)
		if next == s {
			return s
		}
		s = next
	}
}

var urlRe = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)

// ExtractFirstURL returns the first http(s) URL embedded in text, or "".
// Embed snippets (<iframe src=...>, <a href=...>) are read through their attributes first.
func ExtractFirstURL(text string) string {
	if text == "" {
		return ""
	}
	if strings.Contains(text, "<") && strings.Contains(text, ">") {
		if u := firstEmbedURL(text); u != "" {
			return u
		}
	}
	return strings.TrimRight(urlRe.FindString(text), ".,;:!?)]}")
}

// firstEmbedURL pulls the first absolute URL out of an HTML fragment's src/href attributes.
func firstEmbedURL(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("iframe[src], embed[src], video[src], source[src], a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "href"} {
			v, ok := s.Attr(attr)
			if !ok {
				continue
			}
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "//") {
				v = "https:" + v
			}
			if hasHTTPScheme(v) {
				found = v
				return false
			}
		}
		return true
	})
	return found
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// decodeTwice undoes up to two layers of percent-encoding. Some stored links
// were encoded once by the CMS and once more by the redirect wrapper.
func decodeTwice(s string) string {
	for range 2 {
		if !strings.Contains(s, "%") {
			break
		}
		dec, err := url.QueryUnescape(s)
		if err != nil || dec == s {
			break
		}
		s = dec
	}
	return s
}

// parseAbsolute returns s as an absolute http(s) URL, trying the literal form and
// then up to two percent-decoded forms. Protocol-relative links get https.
func parseAbsolute(s string) *url.URL {
	candidates := []string{s}
	if dec := decodeTwice(s); dec != s {
		if once, err := url.QueryUnescape(s); err == nil && once != dec {
			candidates = append(candidates, once)
		}
		candidates = append(candidates, dec)
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if strings.HasPrefix(c, "//") {
			c = "https:" + c
		}
		u, err := url.Parse(c)
		if err != nil || u.Host == "" {
			continue
		}
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			continue
		}
		return u
	}
	return nil
}
