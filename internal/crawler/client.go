package crawler

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrStatus       = errors.New("unexpected http status")
	ErrBodyTooLarge = errors.New("response body too large")
	ErrContentType  = errors.New("unsupported content type")
)

const defaultUserAgent = "go-linkcheck/1.0 (+https://github.com/go-linkcheck)"

// probeDrainCap bounds how much of a probe response is read before the
// connection is handed back to the pool.
const probeDrainCap = 64 * 1024

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: defaultUserAgent,
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func (h *HTTPClient) WithUserAgent(ua string) *HTTPClient {
	if strings.TrimSpace(ua) != "" {
		h.userAgent = ua
	}
	return h
}

// Fetch downloads a document (HTML page or XML sitemap). A status outside
// 2xx, a media type that cannot hold markup, an undecodable body or a body
// over the size cap is an error.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w %d for %s", ErrStatus, resp.StatusCode, u)
	}

	contentType := resp.Header.Get("Content-Type")
	if !documentType(contentType) {
		return nil, "", fmt.Errorf("%w %q for %s", ErrContentType, contentType, u)
	}

	body, err := h.readBody(resp)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", u, err)
	}
	return body, contentType, nil
}

// Probe issues exactly one GET and reports the final status code. Transport
// failures come back as an error with a zero status.
func (h *HTTPClient) Probe(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, probeDrainCap))
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (h *HTTPClient) readBody(resp *http.Response) ([]byte, error) {
	var body io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		body = gz
	case "br":
		body = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		body = fl
	}

	// enforce a size cap
	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > h.sizeCap {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, h.sizeCap)
	}
	return data, nil
}

// documentType rejects media types that can never hold markup. Anything else,
// including application/octet-stream as served by object stores, is handed
// to the parser.
func documentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	major, _, _ := strings.Cut(mediaType, "/")
	switch major {
	case "image", "audio", "video", "font":
		return false
	}
	return true
}
