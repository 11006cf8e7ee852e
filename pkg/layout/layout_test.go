package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/merge"
	"github.com/coolbeans/pasal/pkg/structure"
)

func english() *Formatter {
	return New(lexicon.MustCompile(lexicon.English()), Options{})
}

func TestFormat_IndentedParagraph(t *testing.T) {
	out := english().Format("        indented text")
	assert.Equal(t, "<p style=\"margin-left:32px\">indented text</p>\n", out)
	assert.NotContains(t, out, "<ul")
}

func TestFormat_TabIndentAndCustomPx(t *testing.T) {
	f := New(lexicon.MustCompile(lexicon.English()), Options{IndentPx: 10})
	assert.Equal(t, "<p style=\"margin-left:40px\">tabbed</p>\n", f.Format("\ttabbed"))
}

func TestFormat_ParagraphJoinsUntilBlank(t *testing.T) {
	out := english().Format("first line\nsecond line\n\nthird")
	assert.Equal(t, "<p>first line second line</p>\n<p>third</p>\n", out)
}

func TestFormat_Headings(t *testing.T) {
	out := english().Format("Article 5\nGENERAL PROVISIONS\nShort CAPS")
	assert.Equal(t,
		"<h2>Article 5</h2>\n<h3>GENERAL PROVISIONS</h3>\n<p>Short CAPS</p>\n", out)

	// Below the heading length threshold.
	assert.Equal(t, "<p>SHORT</p>\n", english().Format("SHORT"))
}

func TestFormat_NumberedList(t *testing.T) {
	out := english().Format("(1) first item\ncontinued\n(2) second item\n\nafter list")
	assert.Equal(t, strings.Join([]string{
		`<ul class="numbered" style="list-style:none;padding-left:0">`,
		`<li style="display:flex;gap:0.5em"><span class="num" style="flex:0 0 3em">(1)</span><span class="content" style="flex:1">first item continued</span></li>`,
		`<li style="display:flex;gap:0.5em"><span class="num" style="flex:0 0 3em">(2)</span><span class="content" style="flex:1">second item</span></li>`,
		`</ul>`,
		`<p>after list</p>`,
		``,
	}, "\n"), out)
}

func TestFormat_BlankBetweenItemsKeepsList(t *testing.T) {
	out := english().Format("a. one\n\nb. two")
	assert.Equal(t, 1, strings.Count(out, "<ul"))
	assert.Equal(t, 2, strings.Count(out, "<li"))
	assert.True(t, strings.HasSuffix(out, "</ul>\n"))
}

func TestFormat_IntroKeyword(t *testing.T) {
	out := english().Format("Considering: a. that access to information is a right;\nb. that it must be regulated;")
	assert.True(t, strings.HasPrefix(out, "<h4 class=\"intro\">Considering</h4>\n<ul"), out)
	assert.Contains(t, out, ">a.</span>")
	assert.Contains(t, out, ">b.</span>")

	out = english().Format("Decides: to enact this Act")
	assert.Equal(t, "<h4 class=\"intro\">Decides</h4>\n<p>to enact this Act</p>\n", out)
}

func TestFormat_EscapesText(t *testing.T) {
	out := english().Format("x < y & \"z\"")
	assert.Equal(t, "<p>x &lt; y &amp; &#34;z&#34;</p>\n", out)
}

func TestFormat_Callout(t *testing.T) {
	out := english().Format("(1) Body.\n💡 [Explanation Clause (1)]:\nFirst <line>.\nSecond line.\n\nAfter.")
	assert.Contains(t, out, `<div class="explanation explanation-clause" data-target="1">`)
	assert.Contains(t, out, `<div class="explanation-title">💡 [Explanation Clause (1)]</div>`)
	assert.Contains(t, out, `<div class="explanation-body">First &lt;line&gt;.<br>Second line.</div>`)
	assert.True(t, strings.HasSuffix(out, "<p>After.</p>\n"))
	assert.Less(t, strings.Index(out, "</ul>"), strings.Index(out, "<div class=\"explanation"))
}

func TestFormat_CalloutInlineText(t *testing.T) {
	out := english().Format("💡 [Explanation Article 2]: inline note")
	assert.Contains(t, out, `<div class="explanation-body">inline note</div>`)
	assert.Contains(t, out, `data-target="2"`)
}

func TestFormat_MergedFixture(t *testing.T) {
	pt := lexicon.MustCompile(lexicon.Indonesian())
	doc := structure.NewParser(pt).ParseString(strings.Join([]string{
		"Pasal 1",
		"(1) Setiap orang berhak.",
		"(2) Setiap badan wajib.",
		"PENJELASAN",
		"Pasal 1",
		"Ayat (1)",
		"Hak dijamin.",
		"Ayat (2)",
		"Cukup jelas.",
	}, "\n"))
	merged := merge.New(pt).MergeDocument(doc)

	out := New(pt, Options{}).Format(merged)
	require.Equal(t, 1, strings.Count(out, `class="explanation `), out)
	assert.Contains(t, out, `data-target="1"`)
	assert.Contains(t, out, "<h2>Pasal 1</h2>")
	assert.Contains(t, out, "Hak dijamin.")
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", english().Format(""))
	assert.Equal(t, "", english().Format("\n\n"))
}
