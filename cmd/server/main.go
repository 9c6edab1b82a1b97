package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-linkcheck/internal/classifier"
	"go-linkcheck/internal/config"
	"go-linkcheck/internal/crawler"
	"go-linkcheck/internal/ioformats"
	"go-linkcheck/internal/models"
	"go-linkcheck/pkg/logger"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML configuration file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	l, err := logger.NewWithOptions(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      logRequest(l, newMux(&cfg, l)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.CrawlTimeout.Duration + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}

func newMux(cfg *config.Config, l *logger.Logger) *http.ServeMux {
	match, _ := crawler.ParseDomainMatch(cfg.Crawl.DomainMatch)
	policy, _ := classifier.ParsePolicy(cfg.Crawl.StatusPolicy)
	client := crawler.NewHTTPClient(cfg.HTTP.Timeout.Duration, cfg.HTTP.DialTimeout.Duration, cfg.HTTP.MaxBodyBytes).
		WithUserAgent(cfg.HTTP.UserAgent)
	engine := crawler.NewEngine(client, classifier.NewWithPolicy(policy), match, l)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// POST /crawl  { "url": "https://...", "find_broken_links": true, ... } -> NDJSON stream
	mux.HandleFunc("/crawl", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req models.CrawlOptions
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), cfg.Server.CrawlTimeout.Duration)
		defer cancel()

		w.Header().Set("Content-Type", "application/x-ndjson")
		rep := ioformats.NewNDJSONReporter(w)
		summary, err := engine.Run(ctx, req, rep)
		if err != nil {
			l.Errorf("crawl %s failed: %v", req.URL, err)
			_ = rep.Fail(err)
			return
		}
		l.Infof("crawl %s: %d checked, %d broken", req.URL, summary.Checked, summary.Broken)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
