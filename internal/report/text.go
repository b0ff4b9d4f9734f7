package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/iptvscan/internal/model"
)

// Column widths of the text report.
const (
	textIndexCols  = 5
	textNameCols   = 30
	textLinkCols   = 50
	textStatusCols = 18
	textRuleCols   = 100
)

// Column widths and truncation limits of the console table.
const (
	consoleIndexCols  = 5
	consoleNameCols   = 30
	consoleLinkCols   = 40
	consoleStatusCols = 18
	consoleRuleCols   = 90
)

// TextWriter outputs a fixed-width table of every entry. Cells are padded by
// display width, so rows with CJK names stay aligned. Long cells are kept
// whole; see ConsoleWriter for a truncating table.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the table.
func (w *TextWriter) Write(entries []*model.Entry, _ *model.BatchRun) error {
	var sb strings.Builder

	sb.WriteString("IPTV Channel List\n")
	sb.WriteString(strings.Repeat("=", textRuleCols))
	sb.WriteString("\n")
	writeRow(&sb, []string{"No.", "Name", "Link", "Status"},
		[]int{textIndexCols, textNameCols, textLinkCols, textStatusCols})
	sb.WriteString(strings.Repeat("=", textRuleCols))
	sb.WriteString("\n")

	for i, e := range entries {
		writeRow(&sb, []string{strconv.Itoa(i + 1), e.Name, e.Link, e.Status.String()},
			[]int{textIndexCols, textNameCols, textLinkCols, textStatusCols})
	}

	sb.WriteString(strings.Repeat("=", textRuleCols))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total: %d channels\n", len(entries)))

	_, err := io.WriteString(w.output, sb.String())
	return err
}

// ConsoleWriter prints the entry table shown in the terminal. Names are
// truncated to 30 and links to 40 display columns.
type ConsoleWriter struct {
	baseWriter
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer) *ConsoleWriter {
	return &ConsoleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the table, or a short notice for an empty list.
func (w *ConsoleWriter) Write(entries []*model.Entry, _ *model.BatchRun) error {
	if len(entries) == 0 {
		_, err := io.WriteString(w.output, "No IPTV links found\n")
		return err
	}

	cols := []int{consoleIndexCols, consoleNameCols, consoleLinkCols, consoleStatusCols}

	var sb strings.Builder
	sb.WriteString("\nIPTV Channel List:\n")
	sb.WriteString(strings.Repeat("=", consoleRuleCols))
	sb.WriteString("\n")
	writeRow(&sb, []string{"No.", "Name", "Link", "Status"}, cols)
	sb.WriteString(strings.Repeat("=", consoleRuleCols))
	sb.WriteString("\n")

	for i, e := range entries {
		writeRow(&sb, []string{
			strconv.Itoa(i + 1),
			truncate(e.Name, consoleNameCols),
			truncate(e.Link, consoleLinkCols),
			e.Status.String(),
		}, cols)
	}

	sb.WriteString(strings.Repeat("=", consoleRuleCols))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Found %d IPTV channels\n", len(entries)))

	_, err := io.WriteString(w.output, sb.String())
	return err
}

// writeRow writes cells padded to cols, separated by single spaces.
// The last cell is not padded.
func writeRow(sb *strings.Builder, cells []string, cols []int) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString(" ")
		}
		if i == len(cells)-1 {
			sb.WriteString(cell)
			continue
		}
		sb.WriteString(pad(cell, cols[i]))
	}
	sb.WriteString("\n")
}
