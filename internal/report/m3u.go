package report

import (
	"io"
	"strings"

	"github.com/nao1215/iptvscan/internal/model"
)

// M3UWriter outputs an extended M3U playlist that media players can open.
// EXTINF attributes read from the source playlist are carried over.
type M3UWriter struct {
	baseWriter
}

// NewM3UWriter creates an M3UWriter that outputs to the given writer.
func NewM3UWriter(output io.Writer) *M3UWriter {
	return &M3UWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the playlist.
func (w *M3UWriter) Write(entries []*model.Entry, _ *model.BatchRun) error {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")

	for _, e := range entries {
		tvgName := e.Attr(model.AttrTvgName)
		if tvgName == "" {
			tvgName = e.Name
		}

		sb.WriteString("#EXTINF:-1")
		writeAttr(&sb, model.AttrTvgName, tvgName)
		writeAttr(&sb, model.AttrTvgID, e.Attr(model.AttrTvgID))
		if logo := e.Attr(model.AttrTvgLogo); logo != "" {
			writeAttr(&sb, model.AttrTvgLogo, logo)
		}
		writeAttr(&sb, model.AttrGroupTitle, e.Attr(model.AttrGroupTitle))
		sb.WriteString(",")
		sb.WriteString(oneLine(e.Name))
		sb.WriteString("\n")
		sb.WriteString(e.Link)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w.output, sb.String())
	return err
}

// writeAttr writes ` key="value"`. Quotes inside the value would end the
// attribute early, so they become apostrophes.
func writeAttr(sb *strings.Builder, key, value string) {
	sb.WriteString(" ")
	sb.WriteString(key)
	sb.WriteString(`="`)
	sb.WriteString(strings.ReplaceAll(oneLine(value), `"`, "'"))
	sb.WriteString(`"`)
}

// oneLine collapses line breaks so a value cannot end the EXTINF line.
func oneLine(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
