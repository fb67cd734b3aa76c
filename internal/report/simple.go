package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/transfermap/transfermap/internal/model"
)

// SimpleWriter renders summaries as human-readable plain text. This is
// the default terminal output.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the summary as plain text.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Crawl run %s\n", summary.RunID)
	fmt.Fprintf(&b, "  started:  %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "  finished: %s (%s)\n",
		summary.FinishedAt.Format("2006-01-02 15:04:05 MST"), summary.Elapsed().Round(0))
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "  units attempted:       %d\n", summary.UnitsAttempted)
	fmt.Fprintf(&b, "  units succeeded:       %d\n", summary.UnitsSucceeded)
	fmt.Fprintf(&b, "  pages fetched:         %d\n", summary.PagesFetched)
	fmt.Fprintf(&b, "  pages failed:          %d\n", summary.PagesFailed)
	fmt.Fprintf(&b, "  records extracted:     %d\n", summary.RecordsExtracted)
	fmt.Fprintf(&b, "  records persisted:     %d\n", summary.RecordsPersisted)
	fmt.Fprintf(&b, "  records rejected:      %d\n", summary.RecordsRejected)
	fmt.Fprintf(&b, "  duplicates suppressed: %d\n", summary.DuplicatesSuppressed)

	if reasons := sortedReasons(summary); len(reasons) > 0 {
		fmt.Fprintf(&b, "\nRejections by reason:\n")
		for _, r := range reasons {
			fmt.Fprintf(&b, "  %-22s %d\n", r, summary.RejectReasons[r])
		}
	}

	if len(summary.FailedUnits) > 0 {
		fmt.Fprintf(&b, "\nFailed units (debug artifacts keyed by these IDs):\n")
		for _, id := range summary.FailedUnits {
			fmt.Fprintf(&b, "  %s\n", id)
		}
	}

	return w.output.Write([]byte(b.String()))
}
