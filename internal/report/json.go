package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/iptvscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is the iptvscan version recorded in the report.
	version string

	// now returns the report time; replaced in tests.
	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the generating version in the report.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	// Version is the iptvscan version that generated this report.
	Version string `json:"version,omitempty"`

	// GeneratedAt is the report time.
	GeneratedAt time.Time `json:"generatedAt"`

	// Summary describes the probe pass. It is omitted for unprobed lists.
	Summary *JSONSummary `json:"summary,omitempty"`

	// Entries are the exported entries in playlist order.
	Entries []*model.Entry `json:"entries"`
}

// JSONSummary is the run summary with display groups and percentages.
type JSONSummary struct {
	*model.BatchRun

	Available          int     `json:"available"`
	Unavailable        int     `json:"unavailable"`
	NeedsManualCheck   int     `json:"needsManualCheck"`
	AvailablePercent   float64 `json:"availablePercent"`
	UnavailablePercent float64 `json:"unavailablePercent"`
	ManualPercent      float64 `json:"needsManualCheckPercent"`
	ElapsedSeconds     float64 `json:"elapsedSeconds"`
	Throughput         float64 `json:"throughput"`
}

// newJSONSummary derives the summary of run.
func newJSONSummary(run *model.BatchRun) *JSONSummary {
	if run == nil {
		return nil
	}
	return &JSONSummary{
		BatchRun:           run,
		Available:          run.Available(),
		Unavailable:        run.Unavailable(),
		NeedsManualCheck:   run.NeedsManualCheck(),
		AvailablePercent:   run.Percent(run.Available()),
		UnavailablePercent: run.Percent(run.Unavailable()),
		ManualPercent:      run.Percent(run.NeedsManualCheck()),
		ElapsedSeconds:     run.Elapsed.Seconds(),
		Throughput:         run.Throughput(),
	}
}

// Write outputs the report.
func (w *JSONWriter) Write(entries []*model.Entry, run *model.BatchRun) error {
	if entries == nil {
		entries = []*model.Entry{}
	}
	return w.writeJSON(&JSONReport{
		Version:     w.version,
		GeneratedAt: w.now().UTC(),
		Summary:     newJSONSummary(run),
		Entries:     entries,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) error {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	_, err = w.output.Write(data)
	return err
}
