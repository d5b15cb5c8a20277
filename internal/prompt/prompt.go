package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/unicode/norm"
)

// MinTopics is the fewest topics a mix accepts
const MinTopics = 2

var ErrTooFewTopics = fmt.Errorf("at least %d topics are required", MinTopics)

//go:embed templates/default.tmpl
var defaultTemplateText string

var defaultTemplate = mustParse("default", defaultTemplateText)

// Data is what a template is executed with.
type Data struct {
	Topics []string
}

// Template renders the instruction text sent to the model.
type Template struct {
	name string
	tmpl *template.Template
}

// Default returns the built-in Idea Mixer template.
func Default() *Template {
	return defaultTemplate
}

// Parse compiles text with the sprig function map.
func Parse(name, text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt template %s is empty", name)
	}
	t, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	rv := &Template{name: name, tmpl: t}
	// catch execution errors up front rather than on the first mix
	if _, err := rv.Build([]string{"first", "second"}); err != nil {
		return nil, err
	}
	return rv, nil
}

// Load reads and parses a template file. An empty path yields the default template.
func Load(path string) (*Template, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return Parse(path, string(raw))
}

func (t *Template) Name() string {
	return t.name
}

// Build renders the template for topics. Output is byte-for-byte stable for equal input.
func (t *Template) Build(topics []string) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, Data{Topics: topics}); err != nil {
		return "", fmt.Errorf("render prompt template %s: %w", t.name, err)
	}
	return buf.String(), nil
}

// Build renders the default template.
func Build(topics []string) string {
	s, err := defaultTemplate.Build(topics)
	if err != nil {
		// the embedded template only ranges over a string slice
		panic(err)
	}
	return s
}

// NormalizeTopics trims each topic, drops empty ones and keeps input order.
// Duplicates are kept.
func NormalizeTopics(raw []string) []string {
	topics := make([]string, 0, len(raw))
	for _, r := range raw {
		t := strings.TrimSpace(norm.NFC.String(r))
		if t == "" {
			continue
		}
		topics = append(topics, t)
	}
	return topics
}

// Validate reports ErrTooFewTopics when fewer than MinTopics remain.
func Validate(topics []string) error {
	if len(topics) < MinTopics {
		return ErrTooFewTopics
	}
	return nil
}

func mustParse(name, text string) *Template {
	t, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return t
}
