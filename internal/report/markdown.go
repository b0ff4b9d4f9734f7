package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/iptvscan/internal/model"
)

// markdownLinkCols bounds link cells of the entry table.
const markdownLinkCols = 80

// MarkdownWriter outputs reports in GitHub Flavored Markdown: a summary
// table, a mermaid pie chart of statuses and the entry table.
type MarkdownWriter struct {
	baseWriter

	// version is printed in the footer.
	version string

	// now returns the report time; replaced in tests.
	now func() time.Time
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
		now:        time.Now,
	}
}

// Write outputs the report.
func (w *MarkdownWriter) Write(entries []*model.Entry, run *model.BatchRun) error {
	if run == nil {
		run = model.Summarize(entries, 0)
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSummary(md, run)
	w.writeEntries(md, entries)
	w.writeFooter(md)

	return md.Build()
}

// writeHeader writes the report title and run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.BatchRun) {
	md.H1("IPTV Scan Report")
	md.PlainText("")

	strategy := run.Strategy
	if strategy == "" {
		strategy = "-"
	}
	rows := [][]string{
		{"Report Date", w.now().Format("2006-01-02 15:04:05 MST")},
		{"Links Probed", strconv.Itoa(run.Total)},
		{"Elapsed", run.Elapsed.Round(time.Millisecond).String()},
		{"Throughput", fmt.Sprintf("%.1f links/s", run.Throughput())},
		{"Strategy", strategy},
	}
	if run.ID != "" {
		rows = append(rows, []string{"Run ID", run.ID})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the status table, pie chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.BatchRun) {
	md.H2("Summary")
	md.PlainText("")

	rows := [][]string{
		{"✅ Available", strconv.Itoa(run.Available()), percent(run, run.Available())},
		{"❌ Unavailable (all)", strconv.Itoa(run.Unavailable()), percent(run, run.Unavailable())},
	}
	for _, s := range []model.Status{
		model.StatusUnavailable,
		model.StatusTimeout,
		model.StatusConnectionFailed,
		model.StatusError,
	} {
		rows = append(rows, []string{"&nbsp;&nbsp;" + s.String(), strconv.Itoa(run.Count(s)), percent(run, run.Count(s))})
	}
	rows = append(rows,
		[]string{"🔍 Needs manual check", strconv.Itoa(run.NeedsManualCheck()), percent(run, run.NeedsManualCheck())},
		[]string{"**Total**", "**" + strconv.Itoa(run.Total) + "**", ""},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count", "Percent"},
		Rows:   rows,
	})
	md.PlainText("")

	if run.Total > 0 {
		w.writePieChart(md, run)
	}
	w.writeAlert(md, run)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.BatchRun) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Status Distribution"),
		piechart.WithShowData(true),
	)

	for _, s := range model.AllStatuses() {
		if n := run.Count(s); n > 0 {
			chart.LabelAndIntValue(s.String(), uint64(n)) //nolint:gosec // counts are non-negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the outcome of the pass.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.BatchRun) {
	switch {
	case run.Total == 0:
		md.Note("The playlist contained no links.")
	case run.Available() == 0:
		md.Cautionf("None of the %d links answered. Check the network or proxy settings.", run.Total)
	case run.Percent(run.Available()) < 20:
		md.Warningf("Only %d of %d links (%.1f%%) are available.",
			run.Available(), run.Total, run.Percent(run.Available()))
	default:
		md.Tip(fmt.Sprintf("%d links are available.", run.Available()))
	}
	md.PlainText("")

	if run.Interrupted {
		md.Warningf("The scan was interrupted. Links it did not finish are reported as %q.",
			model.StatusTimeout.String())
		md.PlainText("")
	}

	if n := run.NeedsManualCheck(); n > 0 {
		md.Importantf("%d links use a scheme other than http(s) and were not probed.", n)
		md.PlainText("")
	}
}

// writeEntries writes the entry table.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, entries []*model.Entry) {
	md.H2("Channels")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No channels to list.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		group := e.Attr(model.AttrGroupTitle)
		if group == "" {
			group = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			cell(e.Name),
			cell(group),
			cell(truncate(e.Link, markdownLinkCols)),
			e.Status.String(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Name", "Group", "Link", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	if w.version != "" {
		md.PlainTextf("*Report generated by iptvscan %s*", w.version)
		return
	}
	md.PlainText("*Report generated by iptvscan*")
}

// cell escapes pipes so a value cannot split a table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// percent formats the share of count in run with one decimal.
func percent(run *model.BatchRun, count int) string {
	return fmt.Sprintf("%.1f%%", run.Percent(count))
}
