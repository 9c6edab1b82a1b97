package crawler

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-linkcheck/internal/parser"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func mustDoc(t *testing.T, body string) *parser.Document {
	t.Helper()
	doc, err := parser.New().Parse(strings.NewReader(body), "text/html; charset=utf-8")
	require.NoError(t, err)
	return doc
}

func TestResolve(t *testing.T) {
	base := mustURL(t, "https://x.test/p/q")
	cases := []struct {
		raw  string
		want string
	}{
		{"/a/b", "https://x.test/a/b"},
		{"c.png", "https://x.test/p/c.png"},
		{"../up", "https://x.test/up"},
		{"//cdn.test/lib.js", "https://cdn.test/lib.js"},
		{"https://other.test/z?k=v", "https://other.test/z?k=v"},
		{"#section", "https://x.test/p/q"},
		{"?page=2", "https://x.test/p/q?page=2"},
		{"  /trim  ", "https://x.test/trim"},
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.raw, base)
		if !ok {
			t.Fatalf("Resolve(%q) dropped, want %s", tc.raw, tc.want)
		}
		if got.String() != tc.want {
			t.Fatalf("Resolve(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestResolveDropsUnusable(t *testing.T) {
	base := mustURL(t, "https://x.test/p/q")
	for _, raw := range []string{
		"",
		"   ",
		"http://[::1",
		"%zz",
		"mailto:someone@x.test",
		"javascript:void(0)",
		"data:image/png;base64,AAAA",
		"tel:+100",
	} {
		if u, ok := Resolve(raw, base); ok {
			t.Fatalf("Resolve(%q) = %s, want dropped", raw, u)
		}
	}
}

func TestBaseURL(t *testing.T) {
	docURL := mustURL(t, "https://x.test/dir/page.html?x=1#top")

	base, err := BaseURL(docURL, mustDoc(t, `<html><body><a href="a">a</a></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/dir/page.html", base.String())

	u, ok := Resolve("img/logo.png", base)
	require.True(t, ok)
	assert.Equal(t, "https://x.test/dir/img/logo.png", u.String())
}

func TestBaseTagPrecedence(t *testing.T) {
	docURL := mustURL(t, "https://x.test/dir/page.html")
	doc := mustDoc(t, `<html><head><base href="https://cdn.test/"></head>
<body><a href="a/b">x</a><img src="/logo.png"></body></html>`)

	base, err := BaseURL(docURL, doc)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/", base.String())

	u, ok := Resolve("a/b", base)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/a/b", u.String())

	u, ok = Resolve("/logo.png", base)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/logo.png", u.String())
}

func TestBaseTagRelativeAndMalformed(t *testing.T) {
	docURL := mustURL(t, "https://x.test/dir/page.html")

	base, err := BaseURL(docURL, mustDoc(t, `<html><head><base href="/static/"></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/static/", base.String())

	_, err = BaseURL(docURL, mustDoc(t, `<html><head><base href="http://[::1"></head></html>`))
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestParseAbsolute(t *testing.T) {
	u, err := ParseAbsolute(" https://x.test/a#frag ")
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/a", u.String())

	for _, raw := range []string{"/relative", "ftp://x.test/file", "http://[::1", ""} {
		_, err := ParseAbsolute(raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestCanonicalForms(t *testing.T) {
	base := mustURL(t, "https://x.test/p/q")
	cases := []struct {
		raw  string
		want string
	}{
		{"http://Example.COM", "http://example.com/"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com:443", "https://example.com/"},
		{"http://example.com:443/a", "http://example.com:443/a"},
		{"HTTPS://Example.com:8443/A", "https://example.com:8443/A"},
		{"http://example.com:/x#frag", "http://example.com/x"},
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.raw, base)
		require.True(t, ok, tc.raw)
		assert.Equal(t, tc.want, got.String(), tc.raw)
	}

	u, err := ParseAbsolute("HTTP://Site.Test:80")
	require.NoError(t, err)
	assert.Equal(t, "http://site.test/", u.String())

	b, err := BaseURL(mustURL(t, "https://X.test:443/dir/"), mustDoc(t, `<html></html>`))
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/dir/", b.String())
}
