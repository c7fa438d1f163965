// Package output writes candidate sets as tab-delimited tables.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-inherit/internal/pipeline"
	"github.com/inodb/vibe-inherit/internal/table"
)

// TabWriter writes rows in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with the given header.
func NewTabWriter(w io.Writer, columns []string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	return tw.Write(tw.columns)
}

// Write writes a single row. Cells are written verbatim.
func (tw *TabWriter) Write(cells []string) error {
	_, err := tw.w.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// WriteSet writes a candidate set with its header, in output order.
// An empty set still gets a header line.
func WriteSet(w io.Writer, t *table.Table, s *pipeline.CandidateSet) error {
	tw := NewTabWriter(w, s.Header(t))
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range s.Records(t) {
		if err := tw.Write(s.Cells(r)); err != nil {
			return err
		}
	}
	return tw.Flush()
}
