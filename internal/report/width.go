package report

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// ellipsis marks truncated cells.
const ellipsis = "..."

// displayWidth returns the number of terminal columns s occupies.
// East Asian wide and fullwidth runes take two columns, combining marks none.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch {
	case r == 0 || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r):
		return 0
	case unicode.IsControl(r):
		return 0
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// truncate shortens s to at most maxWidth columns, ending in "..." when cut.
func truncate(s string, maxWidth int) string {
	if displayWidth(s) <= maxWidth {
		return s
	}
	limit := maxWidth - len(ellipsis)
	if limit <= 0 {
		return ellipsis[:maxWidth]
	}

	var sb strings.Builder
	used := 0
	for _, r := range s {
		rw := runeWidth(r)
		if used+rw > limit {
			break
		}
		sb.WriteRune(r)
		used += rw
	}
	sb.WriteString(ellipsis)
	return sb.String()
}

// pad right-pads s with spaces to cols display columns.
func pad(s string, cols int) string {
	if n := displayWidth(s); n < cols {
		return s + strings.Repeat(" ", cols-n)
	}
	return s
}
