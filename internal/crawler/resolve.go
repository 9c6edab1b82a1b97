package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"go-linkcheck/internal/parser"
)

// Resolve turns a raw href/src value into an absolute http(s) URL relative
// to base. References that do not parse, or that point at something other
// than a web resource (mailto:, javascript:, data: ...), are dropped. The
// fragment is stripped since it never reaches the server.
func Resolve(raw string, base *url.URL) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || base == nil {
		return nil, false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	u := base.ResolveReference(ref)
	if !webScheme(u) || u.Host == "" {
		return nil, false
	}
	return canonical(u), true
}

// BaseURL computes the base for resolving references in doc. An explicit
// <base href> wins; otherwise the document's own URL without query and
// fragment is used. The path is kept, so "c.png" on /p/q resolves to /p/c.png
// and not to the site root.
func BaseURL(docURL *url.URL, doc *parser.Document) (*url.URL, error) {
	for _, href := range doc.Attrs("base", "href") {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			return nil, fmt.Errorf("%w: base href %q: %v", ErrInvalidURL, href, err)
		}
		base := docURL.ResolveReference(ref)
		if !webScheme(base) || base.Host == "" {
			return nil, fmt.Errorf("%w: base href %q", ErrInvalidURL, href)
		}
		return canonical(base), nil
	}
	base := *docURL
	base.RawQuery = ""
	base.ForceQuery = false
	return canonical(&base), nil
}

// ParseAbsolute parses a document or location URL, which unlike page
// references must already be absolute.
func ParseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if !webScheme(u) || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", ErrInvalidURL, raw)
	}
	return canonical(u), nil
}

// canonical normalises u in place into the form used as the Visited key:
// lowercase scheme and host, no default port, no fragment, and "/" for an
// empty path.
func canonical(u *url.URL) *url.URL {
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch port := u.Port(); {
	case port == "" && strings.HasSuffix(u.Host, ":"):
		u.Host = strings.TrimSuffix(u.Host, ":")
	case u.Scheme == "http" && port == "80", u.Scheme == "https" && port == "443":
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u
}

func webScheme(u *url.URL) bool {
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}
