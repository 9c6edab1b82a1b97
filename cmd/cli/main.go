package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go-linkcheck/internal/classifier"
	"go-linkcheck/internal/config"
	"go-linkcheck/internal/crawler"
	"go-linkcheck/internal/ioformats"
	"go-linkcheck/pkg/logger"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, err := logger.NewWithOptions(cfg.Logging.Level, cfg.Logging.Format, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 2
	}

	out := stdout
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			fmt.Fprintln(stderr, "create output:", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	format, _ := ioformats.ParseFormat(cfg.Output.Format)
	rep, err := ioformats.NewReporter(format, out)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	match, _ := crawler.ParseDomainMatch(cfg.Crawl.DomainMatch)
	policy, _ := classifier.ParsePolicy(cfg.Crawl.StatusPolicy)

	client := crawler.NewHTTPClient(cfg.HTTP.Timeout.Duration, cfg.HTTP.DialTimeout.Duration, cfg.HTTP.MaxBodyBytes).
		WithUserAgent(cfg.HTTP.UserAgent)
	engine := crawler.NewEngine(client, classifier.NewWithPolicy(policy), match, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, err := engine.Run(ctx, cfg.Crawl.CrawlOptions, rep)
	if cfg.Output.Summary {
		ioformats.WriteSummary(stderr, summary)
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// parseArgs layers command-line flags over the optional config file. Only
// flags that were given explicitly override file values.
func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("linkcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "path to a YAML configuration file")
	var (
		url     string
		links   bool
		images  bool
		sitemap bool
	)
	fs.StringVar(&url, "url", "", "URL to check")
	fs.StringVar(&url, "u", "", "shorthand for -url")
	fs.BoolVar(&links, "find-broken-links", false, "find broken links in page")
	fs.BoolVar(&links, "l", false, "shorthand for -find-broken-links")
	fs.BoolVar(&images, "find-broken-images", false, "find broken images in page")
	fs.BoolVar(&images, "c", false, "shorthand for -find-broken-images")
	fs.BoolVar(&sitemap, "is-xml-sitemap", false, "treat the URL as an XML sitemap")
	fs.BoolVar(&sitemap, "i", false, "shorthand for -is-xml-sitemap")
	format := fs.String("format", "", "output format: text, ndjson or csv")
	output := fs.String("output", "", "write the report to this file instead of stdout")
	summary := fs.Bool("summary", false, "print a summary table to stderr when done")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url", "u":
			cfg.Crawl.URL = url
		case "find-broken-links", "l":
			cfg.Crawl.FindBrokenLinks = links
		case "find-broken-images", "c":
			cfg.Crawl.FindBrokenImages = images
		case "is-xml-sitemap", "i":
			cfg.Crawl.IsXMLSitemap = sitemap
		case "format":
			cfg.Output.Format = *format
		case "output":
			cfg.Output.Path = *output
		case "summary":
			cfg.Output.Summary = *summary
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})
	cfg.Normalise()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireURL(); err != nil {
		return nil, fmt.Errorf("%w: missing --url", errUsage)
	}
	return &cfg, nil
}
