package links

import (
	"net/url"
	"testing"
)

func TestUnescapeHTMLEntities(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://youtu.be/abc12345678", "https://youtu.be/abc12345678"},
		{"amp", "https://www.youtube.com/watch?v=abc12345678&amp;t=30", "https://www.youtube.com/watch?v=abc12345678&t=30"},
		{"double amp", "a&amp;amp;b", "a&b"},
		{"quotes", "&quot;x&quot; &#39;y&#x27;", `"x" 'y'`},
		{"slash", "https:&#x2F;&#x2F;youtu.be&#x2F;abc12345678", "https://youtu.be/abc12345678"},
		{"unknown entity kept", "a&copy;b", "a&copy;b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnescapeHTMLEntities(tt.in); got != tt.want {
				t.Errorf("UnescapeHTMLEntities(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnescapeHTMLEntitiesIdempotent(t *testing.T) {
	inputs := []string{
		"&amp;amp;amp;lt;",
		"https://x.test/?a=1&amp;b=2",
		"&lt;iframe src=&quot;https://www.youtube.com/embed/abc12345678&quot;&gt;",
		"no entities at all",
		"&&amp;;",
	}
	for _, in := range inputs {
		once := UnescapeHTMLEntities(in)
		if twice := UnescapeHTMLEntities(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestExtractFirstURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "https://example.com/a", "https://example.com/a"},
		{"in text", "watch this: https://youtu.be/abc12345678, it's great", "https://youtu.be/abc12345678"},
		{"first of two", "http://a.test/1 and https://b.test/2", "http://a.test/1"},
		{"iframe", `<iframe width="560" src="https://www.youtube.com/embed/abc12345678" frameborder="0"></iframe>`, "https://www.youtube.com/embed/abc12345678"},
		{"protocol relative iframe", `<iframe src="//www.youtube.com/embed/abc12345678"></iframe>`, "https://www.youtube.com/embed/abc12345678"},
		{"anchor", `<a href="https://example.com/x">x</a>`, "https://example.com/x"},
		{"none", "no links here", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFirstURL(tt.in); got != tt.want {
				t.Errorf("ExtractFirstURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveRedirect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"google url q", "https://www.google.com/url?q=https://example.com/page&sa=D", "https://example.com/page"},
		{"google encoded q", "https://www.google.com/url?q=https%3A%2F%2Fexample.com%2Fpage", "https://example.com/page"},
		{"google double encoded", "https://www.google.com/url?q=https%253A%252F%252Fexample.com%252Fpage", "https://example.com/page"},
		{"google url param", "https://www.google.co.uk/url?sa=t&url=https%3A%2F%2Fexample.com%2F", "https://example.com/"},
		{"imgres imgrefurl", "https://www.google.com/imgres?imgurl=x&imgrefurl=https%3A%2F%2Fexample.com%2Fimg", "https://example.com/img"},
		{"ddg uddg", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2F&rut=abc", "https://example.com/"},
		{"facebook l", "https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.com%2Fa%3Ffbclid%3D1", "https://example.com/a"},
		{"youtube redirect", "https://www.youtube.com/redirect?event=video_description&q=https%3A%2F%2Fexample.com", "https://example.com"},
		{"nested wrappers", "https://www.google.com/url?q=" + url.QueryEscape("https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.com%2Fdeep"), "https://example.com/deep"},
		{"html escaped", "https://www.google.com/url?sa=t&amp;q=https%3A%2F%2Fexample.com%2F", "https://example.com/"},
		{"wrapper without destination", "https://www.google.com/url?sa=t&source=web", ""},
		{"wrapper with non-url q", "https://www.google.com/url?q=cats", ""},
		{"shortener", "https://t.co/AbCdEf", ""},
		{"resolves back onto provider", "https://www.google.com/url?q=https%3A%2F%2Fwww.google.com%2Fsearch%3Fq%3Dx", ""},
		{"strip tracking", "https://example.com/a?utm_source=x&id=7&fbclid=abc", "https://example.com/a?id=7"},
		{"no query untouched", "https://example.com/a", "https://example.com/a"},
		{"google search is not a wrapper", "https://www.google.com/search?q=go", "https://www.google.com/search?q=go"},
		{"embedded url", "see https://example.com/x?utm_medium=y now", "https://example.com/x"},
		{"not a url", "just words", "just words"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRedirect(tt.in); got != tt.want {
				t.Errorf("ResolveRedirect(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveRedirectNeverLeaksWrapper(t *testing.T) {
	wrappers := []string{
		"https://www.google.com/url?sa=t",
		"https://www.bing.com/ck/a?p=abc",
		"https://duckduckgo.com/l/?rut=abc",
		"https://l.facebook.com/l.php?h=AT0",
		"https://www.youtube.com/redirect?event=x",
		"https://bit.ly/3abcdef",
	}
	for _, w := range wrappers {
		if got := ResolveRedirect(w); got != "" {
			t.Errorf("ResolveRedirect(%q) = %q, want empty", w, got)
		}
	}
}

func TestCleanURL(t *testing.T) {
	if got := CleanURL("not a link"); got != "" {
		t.Errorf("CleanURL(non-url) = %q, want empty", got)
	}
	if got := CleanURL("https://cdn.example.com/i.jpg?utm_campaign=z"); got != "https://cdn.example.com/i.jpg" {
		t.Errorf("CleanURL = %q", got)
	}
}

func TestToExternalVideoID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare 11", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare 10", "abcdefghij", "abcdefghij"},
		{"bare 15 with dash underscore", "a-b_c-d_e-f_g-h", "a-b_c-d_e-f_g-h"},
		{"bare padded", "  dQw4w9WgXcQ  ", "dQw4w9WgXcQ"},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch escaped amp", "https://www.youtube.com/watch?feature=share&amp;v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ?si=xyz", "dQw4w9WgXcQ"},
		{"shorts", "https://youtube.com/shorts/dQw4w9WgXcQ?feature=share", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=1s", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"google wrapped short link", "https://www.google.com/url?q=https://youtu.be/abc12345678", "abc12345678"},
		{"google wrapped encoded", "https://www.google.com/url?q=https%3A%2F%2Fyoutu.be%2Fabc12345678&sa=D", "abc12345678"},
		{"double encoded bare url", "https%253A%252F%252Fyoutu.be%252Fabc12345678", "abc12345678"},
		{"iframe snippet", `<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>`, "dQw4w9WgXcQ"},
		{"text around", "new video! https://youtu.be/dQw4w9WgXcQ enjoy", "dQw4w9WgXcQ"},
		{"regex fallback on unresolvable wrapper", "https://www.google.com/url?foo=youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"overlong short link segment", "https://youtu.be/dQw4w9WgXcQ_and_more_text", ""},
		{"overlong v in text", "see watch?v=dQw4w9WgXcQ_and_more_text", ""},
		{"non video url", "https://example.com/article/12", ""},
		{"too short", "abc", ""},
		{"too long", "abcdefghijklmnopq", ""},
		{"garbage", "%%%zz", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToExternalVideoID(tt.in); got != tt.want {
				t.Errorf("ToExternalVideoID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToExternalVideoIDBareIDsUnchanged(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for n := 10; n <= 15; n++ {
		for offset := 0; offset+n <= len(alphabet); offset += 7 {
			id := alphabet[offset : offset+n]
			if got := ToExternalVideoID(id); got != id {
				t.Errorf("ToExternalVideoID(%q) = %q, want unchanged", id, got)
			}
		}
	}
}
