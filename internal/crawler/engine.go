package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-linkcheck/internal/classifier"
	"go-linkcheck/internal/models"
	"go-linkcheck/internal/parser"
	"go-linkcheck/pkg/logger"
)

// Fetcher downloads documents that are parsed and crawled.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Prober performs a single reachability request.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

// Client is what the engine needs from the HTTP layer. *HTTPClient
// satisfies it.
type Client interface {
	Fetcher
	Prober
}

// Reporter receives the lifecycle events and check results of a run.
// Result may be called from several goroutines at once.
type Reporter interface {
	Start() error
	Result(models.CheckResult) error
	Done() error
}

// DomainMatch selects how sitemap locations are scoped to the crawled site.
type DomainMatch string

const (
	// MatchSubstring keeps locations whose text contains the root host.
	// Lookalike hosts such as notexample.com pass for example.com.
	MatchSubstring DomainMatch = "substring"
	// MatchHost keeps locations whose host equals the root host.
	MatchHost DomainMatch = "host"
)

func ParseDomainMatch(s string) (DomainMatch, error) {
	switch DomainMatch(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchHost:
		return MatchHost, nil
	default:
		return "", fmt.Errorf("unknown domain match %q", s)
	}
}

type Engine struct {
	client     Client
	parser     *parser.Parser
	classifier *classifier.Classifier
	match      DomainMatch
	log        *logger.Logger
}

func NewEngine(client Client, cl *classifier.Classifier, match DomainMatch, log *logger.Logger) *Engine {
	if cl == nil {
		cl = classifier.New()
	}
	if match == "" {
		match = MatchSubstring
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		client:     client,
		parser:     parser.New(),
		classifier: cl,
		match:      match,
		log:        log,
	}
}

// run carries the state of one invocation. Its Visited ledger lives exactly
// as long as the run.
type run struct {
	e       *Engine
	id      string
	log     *logger.Logger
	rep     Reporter
	kinds   []models.Kind
	visited *Visited
	host    string

	sitemaps atomic.Int64
	pages    atomic.Int64
	ok       atomic.Int64
	broken   atomic.Int64
}

// Run crawls opts.URL and reports every admitted reference. Fetch, parse and
// URL errors abort the run; unreachable references are reported as Broken.
func (e *Engine) Run(ctx context.Context, opts models.CrawlOptions, rep Reporter) (models.Summary, error) {
	start := time.Now()
	r := &run{
		e:       e,
		id:      uuid.NewString(),
		rep:     rep,
		kinds:   opts.Kinds(),
		visited: NewVisited(),
	}
	r.log = e.log.With("run_id", r.id)

	rootURL, err := ParseAbsolute(opts.URL)
	if err != nil {
		return r.summary(start), err
	}
	root, err := r.document(ctx, rootURL)
	if err != nil {
		return r.summary(start), err
	}
	base, err := BaseURL(rootURL, root)
	if err != nil {
		return r.summary(start), err
	}
	r.host = base.Hostname()

	if err := rep.Start(); err != nil {
		return r.summary(start), fmt.Errorf("report start: %w", err)
	}

	if opts.IsXMLSitemap {
		err = r.crawlSitemap(ctx, rootURL, root)
	} else {
		r.pages.Add(1)
		err = r.checkDocument(ctx, root, base)
	}
	if err != nil {
		return r.summary(start), err
	}

	if err := rep.Done(); err != nil {
		return r.summary(start), fmt.Errorf("report done: %w", err)
	}
	s := r.summary(start)
	r.log.Infof("crawl finished: %d checked, %d broken in %s", s.Checked, s.Broken, s.Elapsed.Round(time.Millisecond))
	return s, nil
}

// crawlSitemap walks sitemap -> sitemaps -> pages. Each level is admitted
// in full before it is fetched, so a page referencing a sibling page never
// causes that sibling to be probed instead of crawled.
func (r *run) crawlSitemap(ctx context.Context, rootURL *url.URL, root *parser.Document) error {
	r.visited.Admit(rootURL)
	r.sitemaps.Add(1)

	sitemaps, err := r.admitLocations(ExtractLocations(root))
	if err != nil {
		return err
	}
	for _, sm := range sitemaps {
		doc, err := r.document(ctx, sm)
		if err != nil {
			return err
		}
		r.sitemaps.Add(1)

		pages, err := r.admitLocations(ExtractLocations(doc))
		if err != nil {
			return err
		}
		for _, page := range pages {
			pd, err := r.document(ctx, page)
			if err != nil {
				return err
			}
			base, err := BaseURL(page, pd)
			if err != nil {
				return err
			}
			r.pages.Add(1)
			if err := r.checkDocument(ctx, pd, base); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) admitLocations(locs []string) ([]*url.URL, error) {
	var admitted []*url.URL
	for _, loc := range locs {
		u, ok, err := r.inScope(loc)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.log.Debugf("skipping out-of-scope location %q", loc)
			continue
		}
		if !r.visited.Admit(u) {
			continue
		}
		admitted = append(admitted, u)
	}
	return admitted, nil
}

func (r *run) inScope(loc string) (*url.URL, bool, error) {
	if loc == "" {
		return nil, false, nil
	}
	if r.e.match == MatchSubstring && !strings.Contains(strings.ToLower(loc), r.host) {
		return nil, false, nil
	}
	u, err := ParseAbsolute(loc)
	if err != nil {
		return nil, false, fmt.Errorf("sitemap location: %w", err)
	}
	if r.e.match == MatchHost && !strings.EqualFold(u.Hostname(), r.host) {
		return nil, false, nil
	}
	return u, true, nil
}

// checkDocument probes every newly admitted reference of doc concurrently
// and returns once all of them have been reported.
func (r *run) checkDocument(ctx context.Context, doc *parser.Document, base *url.URL) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range r.kinds {
		for _, raw := range ExtractReferences(doc, kind) {
			u, ok := Resolve(raw, base)
			if !ok {
				r.log.Debugf("dropping %s reference %q", kind, raw)
				continue
			}
			if !r.visited.Admit(u) {
				continue
			}
			g.Go(func() error {
				return r.check(gctx, u)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *run) check(ctx context.Context, u *url.URL) error {
	start := time.Now()
	status, err := r.e.client.Probe(ctx, u.String())
	res := models.CheckResult{
		URL:        u.String(),
		Outcome:    r.e.classifier.Classify(status, err),
		StatusCode: status,
		Duration:   time.Since(start),
	}
	if err != nil {
		res.Err = err.Error()
	}

	if res.Outcome == models.OutcomeOK {
		r.ok.Add(1)
	} else {
		r.broken.Add(1)
		r.log.Infof("broken reference %s (status %d): %s", res.URL, res.StatusCode, res.Err)
	}

	if err := r.rep.Result(res); err != nil {
		return fmt.Errorf("report %s: %w", res.URL, err)
	}
	return nil
}

func (r *run) document(ctx context.Context, u *url.URL) (*parser.Document, error) {
	r.log.Infof("fetching %s", u)
	body, contentType, err := r.e.client.Fetch(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	doc, err := r.e.parser.Parse(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u, err)
	}
	return doc, nil
}

func (r *run) summary(start time.Time) models.Summary {
	ok, broken := int(r.ok.Load()), int(r.broken.Load())
	return models.Summary{
		RunID:    r.id,
		Sitemaps: int(r.sitemaps.Load()),
		Pages:    int(r.pages.Load()),
		Admitted: r.visited.Len(),
		Checked:  ok + broken,
		OK:       ok,
		Broken:   broken,
		Elapsed:  time.Since(start),
	}
}
