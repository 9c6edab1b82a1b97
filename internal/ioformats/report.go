package ioformats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go-linkcheck/internal/models"
)

// Format names a report rendering.
type Format string

const (
	FormatText   Format = "text"
	FormatNDJSON Format = "ndjson"
	FormatCSV    Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatNDJSON, "jsonl":
		return FormatNDJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Reporter is a report sink. Result is safe for concurrent use.
type Reporter interface {
	Start() error
	Result(models.CheckResult) error
	Done() error
}

// NewReporter returns a reporter writing the given format to w.
func NewReporter(f Format, w io.Writer) (Reporter, error) {
	switch f {
	case "", FormatText:
		return NewTextReporter(w), nil
	case FormatNDJSON:
		return NewNDJSONReporter(w), nil
	case FormatCSV:
		return NewCSVReporter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

// TextReporter writes the plain line protocol:
//
//	Starting...
//	<url> is OK
//	<url> is Broken
//	Done!
type TextReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter { return &TextReporter{w: w} }

func (r *TextReporter) Start() error { return r.line("Starting...") }

func (r *TextReporter) Result(res models.CheckResult) error {
	return r.line(fmt.Sprintf("%s is %s", res.URL, res.Outcome))
}

func (r *TextReporter) Done() error { return r.line("Done!") }

func (r *TextReporter) line(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.w, s)
	flush(r.w)
	return err
}

type ndjsonRecord struct {
	Event   string `json:"event,omitempty"`
	URL     string `json:"url,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Millis  int64  `json:"ms,omitempty"`
}

// NDJSONReporter writes one JSON object per line: a start event, one record
// per result and a done event.
type NDJSONReporter struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func NewNDJSONReporter(w io.Writer) *NDJSONReporter {
	return &NDJSONReporter{w: w, enc: json.NewEncoder(w)}
}

func (r *NDJSONReporter) Start() error { return r.encode(ndjsonRecord{Event: "start"}) }

func (r *NDJSONReporter) Result(res models.CheckResult) error {
	return r.encode(ndjsonRecord{
		URL:     res.URL,
		Outcome: res.Outcome.String(),
		Status:  res.StatusCode,
		Error:   res.Err,
		Millis:  res.Duration.Milliseconds(),
	})
}

func (r *NDJSONReporter) Done() error { return r.encode(ndjsonRecord{Event: "done"}) }

// Fail records a fatal error as the final line of the stream.
func (r *NDJSONReporter) Fail(err error) error {
	return r.encode(ndjsonRecord{Event: "error", Error: err.Error()})
}

func (r *NDJSONReporter) encode(rec ndjsonRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(rec); err != nil {
		return err
	}
	flush(r.w)
	return nil
}

// CSVReporter writes a header followed by one row per result.
type CSVReporter struct {
	mu sync.Mutex
	cw *csv.Writer
}

func NewCSVReporter(w io.Writer) *CSVReporter { return &CSVReporter{cw: csv.NewWriter(w)} }

func (r *CSVReporter) Start() error {
	return r.write([]string{"url", "outcome", "status", "error"})
}

func (r *CSVReporter) Result(res models.CheckResult) error {
	status := ""
	if res.StatusCode != 0 {
		status = strconv.Itoa(res.StatusCode)
	}
	return r.write([]string{res.URL, res.Outcome.String(), status, res.Err})
}

func (r *CSVReporter) Done() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cw.Flush()
	return r.cw.Error()
}

func (r *CSVReporter) write(row []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.cw.Write(row); err != nil {
		return err
	}
	r.cw.Flush()
	return r.cw.Error()
}

// flush pushes streamed output to HTTP clients as it is produced.
func flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
