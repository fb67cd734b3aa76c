package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/transfermap/transfermap/internal/model"
)

// MarkdownWriter renders summaries as GitHub-flavored Markdown for
// sharing and documentation.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Mermaid chart embedding
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the summary as Markdown.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + summary.RunID + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed().String()},
		},
	})
	md.PlainText("")

	md.H2("Counters")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Count"},
		Rows: [][]string{
			{"Units attempted", strconv.Itoa(summary.UnitsAttempted)},
			{"Units succeeded", strconv.Itoa(summary.UnitsSucceeded)},
			{"Pages fetched", strconv.Itoa(summary.PagesFetched)},
			{"Pages failed", strconv.Itoa(summary.PagesFailed)},
			{"Records extracted", strconv.Itoa(summary.RecordsExtracted)},
			{"Records persisted", strconv.Itoa(summary.RecordsPersisted)},
			{"Records rejected", strconv.Itoa(summary.RecordsRejected)},
			{"Duplicates suppressed", strconv.Itoa(summary.DuplicatesSuppressed)},
		},
	})
	md.PlainText("")

	if reasons := sortedReasons(summary); len(reasons) > 0 {
		w.writeRejections(md, summary, reasons)
	}

	if len(summary.FailedUnits) > 0 {
		md.H2("Failed Units")
		md.PlainText("Debug artifacts are keyed by these identifiers.")
		md.PlainText("")
		items := make([]string, 0, len(summary.FailedUnits))
		for _, id := range summary.FailedUnits {
			items = append(items, "`"+id+"`")
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// writeRejections renders the rejection buckets as a table plus a mermaid
// pie chart.
func (w *MarkdownWriter) writeRejections(md *markdown.Markdown, summary *model.RunSummary, reasons []model.Reason) {
	md.H2("Rejections by Reason")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Rejection Distribution"),
		piechart.WithShowData(true),
	)

	rows := make([][]string, 0, len(reasons))
	for _, r := range reasons {
		count := summary.RejectReasons[r]
		rows = append(rows, []string{string(r), strconv.Itoa(count)})
		chart.LabelAndIntValue(string(r), uint64(count))
	}

	md.Table(markdown.TableSet{
		Header: []string{"Reason", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
