package report

import (
	"io"

	"github.com/transfermap/transfermap/internal/model"
)

// Writer renders a run summary to a destination.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or both with
// the same API.
type Writer interface {
	// Write renders the summary. Returns the number of bytes written and
	// any error encountered.
	Write(summary *model.RunSummary) (int, error)
}

// MultiWriter writes a summary to multiple Writers. Useful for showing
// the summary on the terminal while also writing it to a file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different from
// io.Writer - we write summaries, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the summary to all configured Writers. Returns the total
// bytes written. Stops on the first error encountered.
func (m *MultiWriter) Write(summary *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedReasons returns the summary's rejection reasons in stable order
// so rendered reports are deterministic.
func sortedReasons(summary *model.RunSummary) []model.Reason {
	order := []model.Reason{
		model.ReasonNetworkTransient,
		model.ReasonNetworkFatal,
		model.ReasonRateLimited,
		model.ReasonParseSoft,
		model.ReasonParseHard,
		model.ReasonMalformedCode,
		model.ReasonInvalidCreditHours,
		model.ReasonIntegrityViolation,
	}

	present := make([]model.Reason, 0, len(order))
	for _, r := range order {
		if summary.RejectReasons[r] > 0 {
			present = append(present, r)
		}
	}
	return present
}
