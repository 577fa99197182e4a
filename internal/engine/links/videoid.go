package links

import (
	"net/url"
	"regexp"
	"strings"
)

var bareIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{10,15}$`)

// videoIDFallbackRe finds an ID in any of the known shapes anywhere in a string.
// The ID must end at a non-ID character so longer tokens are not cut down to one.
var videoIDFallbackRe = regexp.MustCompile(`(?:youtu\.be/|/shorts/|/embed/|/live/|[?&]v=)([A-Za-z0-9_-]{10,15})(?:[^A-Za-z0-9_-]|$)`)

var shortLinkHosts = map[string]bool{
	"youtu.be": true,
}

var videoHosts = map[string]bool{
	"youtube.com":          true,
	"m.youtube.com":        true,
	"music.youtube.com":    true,
	"youtube-nocookie.com": true,
}

// IsVideoID reports whether s already has the shape of a bare external video ID.
func IsVideoID(s string) bool {
	return bareIDRe.MatchString(s)
}

// ToExternalVideoID returns the canonical video ID carried by input, which may be
// a bare ID, a watch/short/embed URL, a redirect-wrapped link, or text containing
// one of those. Returns "" when nothing is recoverable.
func ToExternalVideoID(input string) string {
	s := strings.TrimSpace(UnescapeHTMLEntities(input))
	if s == "" {
		return ""
	}
	// Bare IDs short-circuit: "abc-def_123" must never go through URL parsing.
	if IsVideoID(s) {
		return s
	}

	resolved := ResolveRedirect(s)
	if id := structuralID(resolved); id != "" {
		return id
	}
	for _, candidate := range []string{resolved, decodeTwice(s)} {
		if m := videoIDFallbackRe.FindStringSubmatch(candidate); m != nil {
			return m[1]
		}
	}
	return ""
}

// structuralID reads the ID from a parsed URL in priority order:
// short-link path segment, /shorts/{id}, v parameter, /embed/{id}, /live/{id}.
func structuralID(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")

	if shortLinkHosts[host] {
		if IsVideoID(segs[0]) {
			return segs[0]
		}
		return ""
	}
	if !videoHosts[host] {
		return ""
	}
	if id := segmentAfter(segs, "shorts"); id != "" {
		return id
	}
	if v := u.Query().Get("v"); IsVideoID(v) {
		return v
	}
	if id := segmentAfter(segs, "embed"); id != "" {
		return id
	}
	return segmentAfter(segs, "live")
}

func segmentAfter(segs []string, name string) string {
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == name && IsVideoID(segs[i+1]) {
			return segs[i+1]
		}
	}
	return ""
}
