package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

var (
	defaultRenderer *glamour.TermRenderer
	defaultMu       sync.RWMutex
)

// Options controls terminal rendering.
type Options struct {
	NoColor bool
	// Width wraps output; zero keeps glamour's default
	Width int
	// Style is a glamour standard style name ("dark", "light"); empty picks one
	// from the terminal background
	Style string
}

// Terminal renders the model's markdown for a terminal. On renderer failure the
// input is returned unchanged.
func Terminal(markdown string, opts Options) string {
	var (
		r   *glamour.TermRenderer
		err error
	)
	if opts.Width > 0 || opts.NoColor || opts.Style != "" {
		r, err = newRenderer(opts)
	} else {
		r, err = getDefaultRenderer()
	}
	if err != nil {
		return markdown
	}

	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return normalizeSpacing(out)
}

// normalizeSpacing drops glamour's outer padding so output lines up with other CLI text
func normalizeSpacing(s string) string {
	trimmed := strings.Trim(s, "\n")
	if strings.TrimSpace(trimmed) == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	options := []glamour.TermRendererOption{}
	switch {
	case opts.NoColor:
		options = append(options,
			glamour.WithStandardStyle("notty"),
			glamour.WithColorProfile(termenv.Ascii),
		)
	case opts.Style != "":
		options = append(options,
			glamour.WithStandardStyle(opts.Style),
			glamour.WithColorProfile(termenv.TrueColor),
		)
	default:
		options = append(options,
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
	}
	if opts.Width > 0 {
		options = append(options, glamour.WithWordWrap(opts.Width))
	}
	return glamour.NewTermRenderer(options...)
}

func getDefaultRenderer() (*glamour.TermRenderer, error) {
	defaultMu.RLock()
	if defaultRenderer != nil {
		r := defaultRenderer
		defaultMu.RUnlock()
		return r, nil
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
		if err != nil {
			return nil, err
		}
		defaultRenderer = r
	}
	return defaultRenderer, nil
}
