package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wantVolcanoPrompt = `
You are a highly creative brainstorming assistant called 'Idea Mixer'.
Your goal is to generate innovative and exciting ideas by combining a list of seemingly unrelated topics.

Here are the topics to mix:
- volcanoes
- tax software

Please generate 3 to 5 distinct, well-developed ideas from these topics.
For each idea, provide the following in clear Markdown format:

### Idea Title (A catchy name)
**Concept:** A short, compelling paragraph explaining the core idea.
**Target Audience:** A brief description of who this idea is for.
---
Ensure the final output is only the generated ideas, without any introductory or concluding remarks from you.
`

func TestBuildMatchesFixedTemplate(t *testing.T) {
	assert.Equal(t, wantVolcanoPrompt, Build([]string{"volcanoes", "tax software"}))
}

func TestBuildIsDeterministicAndOrdered(t *testing.T) {
	topics := []string{"jazz", "beekeeping", "jazz", "<b>html</b>", "{{ .Topics }}"}

	first := Build(topics)
	second := Build(append([]string(nil), topics...))
	require.Equal(t, first, second)

	var bullets []string
	for _, line := range strings.Split(first, "\n") {
		if strings.HasPrefix(line, "- ") {
			bullets = append(bullets, strings.TrimPrefix(line, "- "))
		}
	}
	assert.Equal(t, topics, bullets)
}

func TestNormalizeTopics(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "trims and drops blanks", in: []string{"  volcanoes ", "", "\t", "tax software"}, want: []string{"volcanoes", "tax software"}},
		{name: "keeps duplicates", in: []string{"a", "a"}, want: []string{"a", "a"}},
		{name: "nil", in: nil, want: []string{}},
		{name: "composes unicode", in: []string{"cafe\u0301 culture"}, want: []string{"caf\u00e9 culture"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTopics(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrTooFewTopics)
	assert.ErrorIs(t, Validate([]string{"one"}), ErrTooFewTopics)
	assert.NoError(t, Validate([]string{"one", "two"}))
	assert.Equal(t, "at least 2 topics are required", ErrTooFewTopics.Error())
}

func TestLoadCustomTemplateWithSprig(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "short.tmpl")
	require.NoError(os.WriteFile(path, []byte(`Mix {{ .Topics | join " + " | upper }} into {{ len .Topics }} ideas.`), 0o600))

	tmpl, err := Load(path)
	require.NoError(err)
	require.Equal(path, tmpl.Name())

	got, err := tmpl.Build([]string{"tea", "robots"})
	require.NoError(err)
	require.Equal("Mix TEA + ROBOTS into 2 ideas.", got)
}

func TestLoadRejectsBrokenTemplates(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.tmpl":   "   ",
		"syntax.tmpl":  "{{ range .Topics }}",
		"missing.tmpl": "{{ .Audience }}",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "absent.tmpl"))
	assert.Error(t, err)

	tmpl, err := Load("")
	require.NoError(t, err)
	assert.Same(t, Default(), tmpl)
}
