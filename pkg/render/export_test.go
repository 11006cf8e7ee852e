package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	out := Sanitize(`<p style="margin-left:32px" onclick="x()">text</p><script>alert(1)</script>`)
	assert.Contains(t, out, "text")
	assert.Contains(t, out, "<p")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onclick")
}

func TestSanitize_KeepsAnchorsAndClasses(t *testing.T) {
	out := Sanitize(`<div class="clause" id="article1-clause2">x</div>`)
	assert.Contains(t, out, `class="clause"`)
	assert.Contains(t, out, `id="article1-clause2"`)
}

func TestToMarkdown(t *testing.T) {
	md, err := ToMarkdown("<h2>Article 1</h2>\n<p>The <strong>first</strong> article.</p>")
	require.NoError(t, err)
	assert.Contains(t, md, "## Article 1")
	assert.Contains(t, md, "**first**")
}
