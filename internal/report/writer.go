package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/iptvscan/internal/config"
	"github.com/nao1215/iptvscan/internal/database"
	"github.com/nao1215/iptvscan/internal/model"
)

// ErrUnsupportedFormat is returned by NewWriter for an unknown format name.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Writer defines the interface for report output.
// Implementations write probe results in various formats to the output they
// were created with.
type Writer interface {
	// Write outputs entries and the run summary. run may be nil when the
	// entries were never probed.
	Write(entries []*model.Entry, run *model.BatchRun) error
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(entries []*model.Entry, run *model.BatchRun) error {
	for _, w := range m.writers {
		if err := w.Write(entries, run); err != nil {
			return err
		}
	}
	return nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Options holds settings shared by the format writers.
type Options struct {
	// Version is recorded in JSON and Markdown reports.
	Version string
}

type writerFactory func(output io.Writer, opts Options) Writer

var writerFactories = map[string]writerFactory{
	config.FormatCSV: func(output io.Writer, _ Options) Writer { return NewCSVWriter(output) },
	config.FormatTXT: func(output io.Writer, _ Options) Writer { return NewTextWriter(output) },
	config.FormatM3U: func(output io.Writer, _ Options) Writer { return NewM3UWriter(output) },
	config.FormatMarkdown: func(output io.Writer, opts Options) Writer {
		return NewMarkdownWriter(output, opts.Version)
	},
	config.FormatJSON: func(output io.Writer, opts Options) Writer {
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(opts.Version))
	},
}

func factoryFor(format string) (writerFactory, error) {
	f, ok := writerFactories[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return f, nil
}

// NewWriter returns the writer for a stream format: csv, txt, m3u, md or json.
func NewWriter(format string, output io.Writer, opts Options) (Writer, error) {
	f, err := factoryFor(format)
	if err != nil {
		return nil, err
	}
	return f(output, opts), nil
}

// SelectEntries returns the entries to export: all of them, or only the
// available ones when onlyAvailable is set.
func SelectEntries(entries []*model.Entry, onlyAvailable bool) []*model.Entry {
	if !onlyAvailable {
		return entries
	}
	return model.FilterByStatus(entries, model.StatusAvailable)
}

// ExportFile writes entries in format to path, creating parent directories.
// The run summary always describes the whole pass, also when entries were
// filtered.
func ExportFile(ctx context.Context, format, path string, entries []*model.Entry, run *model.BatchRun, opts Options) error {
	if format == config.FormatSQLite {
		if err := database.Export(ctx, path, entries, run); err != nil {
			return fmt.Errorf("failed to export %s: %w", path, err)
		}
		return nil
	}

	newWriter, err := factoryFor(format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // output path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := newWriter(f, opts).Write(entries, run); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	return f.Close()
}
