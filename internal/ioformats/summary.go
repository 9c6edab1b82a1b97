package ioformats

import (
	"io"
	"time"

	"github.com/rodaine/table"

	"go-linkcheck/internal/models"
)

// WriteSummary prints the run counters as a two-column table.
func WriteSummary(w io.Writer, s models.Summary) {
	tbl := table.New("Metric", "Value").WithWriter(w)
	tbl.AddRow("Run", s.RunID)
	tbl.AddRow("Sitemaps", s.Sitemaps)
	tbl.AddRow("Pages", s.Pages)
	tbl.AddRow("Admitted", s.Admitted)
	tbl.AddRow("Checked", s.Checked)
	tbl.AddRow("OK", s.OK)
	tbl.AddRow("Broken", s.Broken)
	tbl.AddRow("Elapsed", s.Elapsed.Round(time.Millisecond))
	tbl.Print()
}
