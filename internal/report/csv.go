package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nao1215/iptvscan/internal/model"
)

// csvHeader is the header row of CSV reports.
var csvHeader = []string{"index", "name", "link", "status"}

// CSVWriter outputs one row per entry: 1-based index, name, link and status label.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the entries. The run summary is not part of CSV output.
func (w *CSVWriter) Write(entries []*model.Entry, _ *model.BatchRun) error {
	cw := csv.NewWriter(w.output)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, e := range entries {
		if err := cw.Write([]string{strconv.Itoa(i + 1), e.Name, e.Link, e.Status.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
