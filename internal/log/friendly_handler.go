package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// NewFriendlyErrorHandler renders error records as short console messages:
//
//	Error: <message>
//	  suggestion: <hint>
//	  <key>: <value>
func NewFriendlyErrorHandler(w io.Writer) slog.Handler {
	return &friendlyHandler{w: w}
}

type friendlyHandler struct {
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

type attrEntry struct {
	key   string
	value string
}

func (h *friendlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *friendlyHandler) Handle(_ context.Context, record slog.Record) error {
	entries := h.entries(record)

	summary := strings.TrimSpace(record.Message)
	if summary == "" {
		summary = lookup(entries, "error")
	}
	if summary == "" {
		summary = "an unknown error occurred"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", summary)
	if s := lookup(entries, "suggestion"); s != "" {
		fmt.Fprintf(&sb, "  suggestion: %s\n", s)
	}

	rest := make([]attrEntry, 0, len(entries))
	for _, e := range entries {
		if e.key == "suggestion" || e.key == "error" || e.value == "" {
			continue
		}
		rest = append(rest, e)
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].key < rest[j].key })
	for _, e := range rest {
		writeEntry(&sb, e)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *friendlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return next
}

func (h *friendlyHandler) WithGroup(name string) slog.Handler {
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *friendlyHandler) clone() *friendlyHandler {
	return &friendlyHandler{
		w:      h.w,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *friendlyHandler) entries(record slog.Record) []attrEntry {
	out := make([]attrEntry, 0, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		out = append(out, attrEntry{key: a.Key, value: valueString(a.Value.Resolve())})
	}
	record.Attrs(func(a slog.Attr) bool {
		out = append(out, attrEntry{key: h.qualify(a.Key), value: valueString(a.Value.Resolve())})
		return true
	})
	return out
}

func (h *friendlyHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(append(append([]string(nil), h.groups...), key), ".")
}

func lookup(entries []attrEntry, key string) string {
	for _, e := range entries {
		if e.key == key && e.value != "" {
			return e.value
		}
	}
	return ""
}

func valueString(val slog.Value) string {
	switch val.Kind() {
	case slog.KindGroup:
		parts := make([]string, 0, len(val.Group()))
		for _, a := range val.Group() {
			parts = append(parts, a.Key+"="+valueString(a.Value.Resolve()))
		}
		return strings.Join(parts, ", ")
	case slog.KindAny:
		if err, ok := val.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(val.Any())
	default:
		return val.String()
	}
}

func writeEntry(sb *strings.Builder, e attrEntry) {
	lines := strings.Split(strings.TrimSpace(e.value), "\n")
	fmt.Fprintf(sb, "  %s: %s\n", e.key, strings.TrimSpace(lines[0]))
	for _, line := range lines[1:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			fmt.Fprintf(sb, "    %s\n", trimmed)
		}
	}
}
