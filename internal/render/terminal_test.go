package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalNoColor(t *testing.T) {
	out := Terminal("### Idea\n\n**Bold** text", Options{NoColor: true, Width: 60})
	require.NotEmpty(t, out)
	assert.Contains(t, out, "Idea")
	assert.Contains(t, out, "Bold")
	assert.NotContains(t, out, "\x1b[")
}

func TestTerminalBlankInput(t *testing.T) {
	assert.Equal(t, "", Terminal("   ", Options{NoColor: true}))
}

func TestNormalizeSpacing(t *testing.T) {
	assert.Equal(t, "a\n  b", normalizeSpacing("\n\na   \n  b  \n\n"))
}
