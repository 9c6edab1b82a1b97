package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-linkcheck/internal/classifier"
	"go-linkcheck/internal/crawler"
	"go-linkcheck/internal/ioformats"
	"go-linkcheck/internal/models"
)

// Config is the full configuration of the checker, CLI and server alike.
type Config struct {
	Crawl   CrawlConfig   `yaml:"crawl"`
	HTTP    HTTPConfig    `yaml:"http"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// CrawlConfig holds the invocation parameters plus the scoping and
// classification choices.
type CrawlConfig struct {
	models.CrawlOptions `yaml:",inline"`
	DomainMatch         string `yaml:"domain_match"`
	StatusPolicy        string `yaml:"status_policy"`
}

type HTTPConfig struct {
	UserAgent    string   `yaml:"user_agent"`
	Timeout      Duration `yaml:"timeout"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

type OutputConfig struct {
	Format  string `yaml:"format"`
	Path    string `yaml:"path"`
	Summary bool   `yaml:"summary"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	CrawlTimeout Duration `yaml:"crawl_timeout"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			DomainMatch:  string(crawler.MatchSubstring),
			StatusPolicy: string(classifier.PolicyExact),
		},
		HTTP: HTTPConfig{
			Timeout:      DurationFrom(15 * time.Second),
			DialTimeout:  DurationFrom(5 * time.Second),
			MaxBodyBytes: 5 * 1024 * 1024,
		},
		Output: OutputConfig{
			Format: string(ioformats.FormatText),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			CrawlTimeout: DurationFrom(5 * time.Minute),
		},
	}
}

// Load reads, normalises and validates configuration from a YAML file. The
// crawl URL is not required here since the CLI may still supply it.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants every consumer relies on.
func (c Config) Validate() error {
	if _, err := crawler.ParseDomainMatch(c.Crawl.DomainMatch); err != nil {
		return fmt.Errorf("crawl.domain_match: %w", err)
	}
	if _, err := classifier.ParsePolicy(c.Crawl.StatusPolicy); err != nil {
		return fmt.Errorf("crawl.status_policy: %w", err)
	}
	if c.HTTP.Timeout.Duration < 0 {
		return fmt.Errorf("http.timeout must be >= 0 (got %s)", c.HTTP.Timeout)
	}
	if c.HTTP.DialTimeout.Duration < 0 {
		return fmt.Errorf("http.dial_timeout must be >= 0 (got %s)", c.HTTP.DialTimeout)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be > 0 (got %d)", c.HTTP.MaxBodyBytes)
	}
	if _, err := ioformats.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	return nil
}

// RequireURL checks that a crawl target has been supplied.
func (c Config) RequireURL() error {
	if c.Crawl.URL == "" {
		return errors.New("crawl.url must be set")
	}
	return nil
}

func (c *Config) normalise() {
	c.Crawl.URL = strings.TrimSpace(c.Crawl.URL)
	c.Crawl.DomainMatch = strings.ToLower(strings.TrimSpace(c.Crawl.DomainMatch))
	c.Crawl.StatusPolicy = strings.ToLower(strings.TrimSpace(c.Crawl.StatusPolicy))
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Output.Path = strings.TrimSpace(c.Output.Path)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Normalise re-applies normalisation after callers override fields, for
// example from command-line flags.
func (c *Config) Normalise() { c.normalise() }
