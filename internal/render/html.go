package render

import "strings"

const (
	headingPrefix = "### "
	strongMarker  = "**"
)

// HTML converts the markdown subset the prompt asks for into markup. It
// recognises "### " headings at line start, **bold** spans within a line,
// lines made only of three or more hyphens, and newlines. Everything else,
// HTML included, is copied through untouched.
func HTML(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)

	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<br>")
		}
		switch {
		case strings.HasPrefix(line, headingPrefix):
			b.WriteString("<h3>")
			writeInline(&b, line[len(headingPrefix):])
			b.WriteString("</h3>")
		case isSeparator(line):
			b.WriteString("<hr>")
		default:
			writeInline(&b, line)
		}
	}
	return b.String()
}

// writeInline pairs ** markers left to right; an unpaired marker is literal
func writeInline(b *strings.Builder, s string) {
	for {
		open := strings.Index(s, strongMarker)
		if open < 0 {
			b.WriteString(s)
			return
		}
		rest := s[open+len(strongMarker):]
		end := strings.Index(rest, strongMarker)
		if end < 0 {
			b.WriteString(s)
			return
		}
		b.WriteString(s[:open])
		b.WriteString("<strong>")
		b.WriteString(rest[:end])
		b.WriteString("</strong>")
		s = rest[end+len(strongMarker):]
	}
}

func isSeparator(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 3 {
		return false
	}
	return strings.Trim(line, "-") == ""
}
