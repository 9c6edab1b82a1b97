package ioformats

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-linkcheck/internal/models"
)

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)
	require.NoError(t, r.Start())
	require.NoError(t, r.Result(models.CheckResult{URL: "https://x.test/dead", Outcome: models.OutcomeBroken, StatusCode: 404}))
	require.NoError(t, r.Result(models.CheckResult{URL: "https://x.test/ok", Outcome: models.OutcomeOK, StatusCode: 200}))
	require.NoError(t, r.Done())

	want := "Starting...\nhttps://x.test/dead is Broken\nhttps://x.test/ok is OK\nDone!\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestTextReporterConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Result(models.CheckResult{URL: "https://x.test/p", Outcome: models.OutcomeOK})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 50)
	for _, l := range lines {
		assert.Equal(t, "https://x.test/p is OK", l)
	}
}

func TestNDJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewNDJSONReporter(&buf)
	require.NoError(t, r.Start())
	require.NoError(t, r.Result(models.CheckResult{
		URL: "https://x.test/a", Outcome: models.OutcomeBroken, Err: "dial tcp: refused", Duration: 15 * time.Millisecond,
	}))
	require.NoError(t, r.Done())
	require.NoError(t, r.Fail(errors.New("boom")))

	var recs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		recs = append(recs, m)
	}
	require.Len(t, recs, 4)
	assert.Equal(t, "start", recs[0]["event"])
	assert.Equal(t, "https://x.test/a", recs[1]["url"])
	assert.Equal(t, "Broken", recs[1]["outcome"])
	assert.Equal(t, "dial tcp: refused", recs[1]["error"])
	assert.EqualValues(t, 15, recs[1]["ms"])
	assert.Equal(t, "done", recs[2]["event"])
	assert.Equal(t, "boom", recs[3]["error"])
}

func TestCSVReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewCSVReporter(&buf)
	require.NoError(t, r.Start())
	require.NoError(t, r.Result(models.CheckResult{URL: "https://x.test/a,b", Outcome: models.OutcomeOK, StatusCode: 200}))
	require.NoError(t, r.Result(models.CheckResult{URL: "https://x.test/c", Outcome: models.OutcomeBroken, Err: "timeout"}))
	require.NoError(t, r.Done())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"url", "outcome", "status", "error"},
		{"https://x.test/a,b", "OK", "200", ""},
		{"https://x.test/c", "Broken", "", "timeout"},
	}, rows)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "jsonl": FormatNDJSON, "csv": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)

	_, err = NewReporter(Format("xml"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, models.Summary{RunID: "run-1", Pages: 2, Checked: 5, OK: 4, Broken: 1})
	out := buf.String()
	assert.Contains(t, out, "Metric")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Broken")
}
