package playlist

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/nao1215/iptvscan/internal/model"
)

const (
	extinfPrefix = "#EXTINF:"

	// maxLineSize bounds a single playlist line. Some playlists inline
	// base64 logos into tvg-logo.
	maxLineSize = 1 << 20
)

// attrPattern matches key="value" pairs in an #EXTINF line.
var attrPattern = regexp.MustCompile(`([A-Za-z0-9_-]+)="([^"]*)"`)

// Parse reads an extended M3U playlist.
//
// Each #EXTINF line is paired with the next line that is neither blank nor
// a comment. Entries without a link are skipped and links seen earlier are
// dropped, so the first occurrence wins. When the display name is empty the
// tvg-name attribute, then the link, is used instead. All entries start
// Untested.
func Parse(r io.Reader) ([]*model.Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []*model.Entry
	var pending *model.Entry
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}

		switch {
		case line == "":
		case strings.HasPrefix(line, extinfPrefix):
			// A previous #EXTINF without a link is discarded.
			pending = parseExtinf(line)
		case strings.HasPrefix(line, "#"):
		case pending != nil:
			pending.Link = line
			if pending.Name == "" {
				pending.Name = line
			}
			entries = append(entries, pending)
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return model.Dedup(entries), nil
}

// parseExtinf parses `#EXTINF:<duration> attrs,<name>` into an entry without a link.
func parseExtinf(line string) *model.Entry {
	body := strings.TrimPrefix(line, extinfPrefix)

	info, name := splitTitle(body)
	e := model.NewEntry(strings.TrimSpace(name), "")

	for _, m := range attrPattern.FindAllStringSubmatch(info, -1) {
		if e.Attributes == nil {
			e.Attributes = make(map[string]string)
		}
		key := strings.ToLower(m[1])
		if _, ok := e.Attributes[key]; !ok {
			e.Attributes[key] = strings.TrimSpace(m[2])
		}
	}

	if e.Name == "" {
		e.Name = e.Attr(model.AttrTvgName)
	}
	return e
}

// splitTitle splits the EXTINF body at the first comma outside quotes.
func splitTitle(body string) (info, title string) {
	inQuote := false
	for i, r := range body {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				return body[:i], body[i+1:]
			}
		}
	}
	return body, ""
}
