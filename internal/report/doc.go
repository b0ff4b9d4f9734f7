// Package report renders probe results.
//
// Writers share the Writer interface and are picked by format name with
// NewWriter:
//   - csv: one row per entry for spreadsheets
//   - txt: a fixed-width table for reading
//   - m3u: a playlist that players can open directly
//   - md: a GitHub Flavored Markdown report with a status pie chart
//   - json: entries and summary for tool integration
//
// The sqlite format writes a snapshot database rather than a stream and is
// handled by ExportFile through the database package. The console table and
// summary printed by the CLI live here as well.
package report
