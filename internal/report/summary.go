package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/iptvscan/internal/model"
)

// SummaryWriter prints the statistics of a probe pass for the terminal.
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary of run. Entries are not listed.
func (w *SummaryWriter) Write(_ []*model.Entry, run *model.BatchRun) error {
	if run == nil {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Probe complete: %d links in %s (%.1f links/s)\n",
		run.Total, run.Elapsed.Round(time.Millisecond), run.Throughput()))
	if run.Strategy != "" {
		sb.WriteString(fmt.Sprintf("Strategy: %s\n", run.Strategy))
	}
	if run.Interrupted {
		sb.WriteString("Interrupted: links not probed before cancellation are counted as timed out\n")
	}
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	line := func(indent, label string, n int) {
		sb.WriteString(fmt.Sprintf("%s%s %6d (%5.1f%%)\n", indent, pad(label+":", 24-len(indent)), n, run.Percent(n)))
	}
	line("  ", "Available", run.Available())
	line("  ", "Unavailable", run.Unavailable())
	for _, s := range []model.Status{
		model.StatusUnavailable,
		model.StatusTimeout,
		model.StatusConnectionFailed,
		model.StatusError,
	} {
		line("    ", s.String(), run.Count(s))
	}
	line("  ", "Needs manual check", run.NeedsManualCheck())
	if residual := run.Residual(); residual > 0 {
		line("  ", "Untested", residual)
	}

	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	_, err := io.WriteString(w.output, sb.String())
	return err
}
