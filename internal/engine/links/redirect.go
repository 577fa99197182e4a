package links

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// maxRedirectDepth bounds wrapper-inside-wrapper unwrapping.
const maxRedirectDepth = 3

// searchProviders are registrable-domain labels of search engines whose redirect
// endpoints wrap the real destination. A resolved URL still on one of these is never clean.
var searchProviders = map[string]bool{
	"google":     true,
	"bing":       true,
	"duckduckgo": true,
	"yandex":     true,
	"yahoo":      true,
}

// pathWrapperProviders additionally wrap links only under a redirect path
// (youtube.com/redirect, facebook.com/l.php) and are legitimate hosts otherwise.
var pathWrapperProviders = map[string]bool{
	"youtube":  true,
	"facebook": true,
	"linkedin": true,
	"vk":       true,
}

var redirectPathPrefixes = []string{
	"/url", "/imgres", "/l/", "/l.php", "/link", "/aclk", "/ck/a", "/redirect", "/away", "/r/",
}

// redirectHosts are dedicated redirect or shortener hosts: every link on them is a wrapper.
var redirectHosts = map[string]bool{
	"l.facebook.com":   true,
	"lm.facebook.com":  true,
	"l.instagram.com":  true,
	"l.messenger.com":  true,
	"out.reddit.com":   true,
	"href.li":          true,
	"away.vk.com":      true,
	"t.umblr.com":      true,
	"t.co":             true,
	"lnkd.in":          true,
	"bit.ly":           true,
	"tinyurl.com":      true,
	"ow.ly":            true,
	"buff.ly":          true,
	"goo.gl":           true,
}

// destinationParams is the fixed priority order for the wrapped destination.
var destinationParams = []string{
	"q", "url", "imgrefurl",
	"u", "uddg", "dest", "target", "to", "link", "redirect", "redir",
}

var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"dclid":   true,
	"msclkid": true,
	"yclid":   true,
	"mc_cid":  true,
	"mc_eid":  true,
	"igshid":  true,
	"si":      true,
	"feature": true,
	"_ga":     true,
	"ref_src": true,
	"spm":     true,
}

// ResolveRedirect returns the true destination of a redirect-wrapped link, or the
// link itself with tracking parameters stripped when it is not a wrapper.
//
// A detected wrapper with no resolvable destination yields "" so the wrapper page
// never leaks as a "clean" link. Input that does not parse as a URL is returned as
// the first URL embedded in it, or literally when there is none.
func ResolveRedirect(raw string) string {
	return resolve(raw, 0)
}

func resolve(raw string, depth int) string {
	s := strings.TrimSpace(UnescapeHTMLEntities(raw))
	if s == "" {
		return ""
	}

	u := parseAbsolute(s)
	if u == nil {
		embedded := ExtractFirstURL(s)
		if embedded == "" {
			return s
		}
		if u = parseAbsolute(embedded); u == nil {
			return embedded
		}
	}

	if !isWrapper(u) {
		return stripTracking(u)
	}
	if depth >= maxRedirectDepth {
		return ""
	}
	dest := destination(u)
	if dest == "" {
		return ""
	}
	out := resolve(dest, depth+1)
	if out == "" || onSearchProvider(out) {
		return ""
	}
	return out
}

// CleanURL resolves raw to a direct http(s) URL, or "" when none can be recovered.
func CleanURL(raw string) string {
	out := ResolveRedirect(raw)
	if !hasHTTPScheme(out) {
		return ""
	}
	return out
}

func isWrapper(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if redirectHosts[host] {
		return true
	}
	label := registrableLabel(host)
	if !searchProviders[label] && !pathWrapperProviders[label] {
		return false
	}
	path := strings.ToLower(u.EscapedPath())
	for _, prefix := range redirectPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// destination returns the first destination parameter that decodes to an absolute URL.
func destination(u *url.URL) string {
	q := u.Query()
	for _, p := range destinationParams {
		v := q.Get(p)
		if v == "" {
			continue
		}
		if d := parseAbsolute(v); d != nil {
			return d.String()
		}
	}
	return ""
}

func onSearchProvider(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return searchProviders[registrableLabel(strings.ToLower(u.Hostname()))]
}

// registrableLabel returns "google" for www.google.co.uk.
func registrableLabel(host string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	label, _, _ := strings.Cut(etld1, ".")
	return label
}

func stripTracking(u *url.URL) string {
	if u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	changed := false
	for key := range q {
		if trackingParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
