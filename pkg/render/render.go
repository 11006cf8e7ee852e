// Package render turns a parsed statute into a navigable HTML page: a side
// panel table of contents and a collapsible section per article.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/structure"
)

// Options controls what the renderer emits around the content.
type Options struct {
	// Title is the page title. Defaults to the lexicon's language.
	Title string
	// Fragment omits the html/head/body wrapper.
	Fragment bool
	// NoStyles omits the inline stylesheet.
	NoStyles bool
	// NoScript omits the expand/collapse toggle script.
	NoScript bool
	// Collapsed renders every article closed.
	Collapsed bool
}

// Renderer renders documents. It is safe for concurrent use.
type Renderer struct {
	patterns *lexicon.Patterns
	opts     Options
}

// New returns a renderer that labels units with the lexicon's words.
func New(patterns *lexicon.Patterns, opts Options) *Renderer {
	if opts.Title == "" {
		opts.Title = patterns.Lexicon().Language
	}
	return &Renderer{patterns: patterns, opts: opts}
}

// ArticleAnchor returns the element id of an article section.
func ArticleAnchor(articleID string) string {
	return "article" + articleID
}

// ClauseAnchor returns the element id of a clause within an article.
func ClauseAnchor(articleID, clauseID string) string {
	return ArticleAnchor(articleID) + "-clause" + clauseID
}

// Render returns the document as HTML. Anchors use article and clause ids
// verbatim from the tree.
func (renderer *Renderer) Render(doc *structure.Document) string {
	var htmlBuilder strings.Builder

	if !renderer.opts.Fragment {
		htmlBuilder.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
		htmlBuilder.WriteString("<meta charset=\"UTF-8\">\n")
		htmlBuilder.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
		htmlBuilder.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(renderer.opts.Title)))
		if !renderer.opts.NoStyles {
			htmlBuilder.WriteString(statuteHTMLStyles())
		}
		htmlBuilder.WriteString("</head>\n<body>\n")
	} else if !renderer.opts.NoStyles {
		htmlBuilder.WriteString(statuteHTMLStyles())
	}

	htmlBuilder.WriteString("<div class=\"statute\">\n")
	renderer.writeTOC(&htmlBuilder, doc.TOC)

	htmlBuilder.WriteString("<main class=\"statute-content\">\n")
	if doc.GeneralExplanation != "" {
		htmlBuilder.WriteString("<section class=\"general-explanation\">\n")
		writeExplanation(&htmlBuilder, renderer.patterns.CalloutLabel(), doc.GeneralExplanation)
		htmlBuilder.WriteString("</section>\n")
	}
	for _, article := range doc.Articles {
		renderer.writeArticle(&htmlBuilder, article)
	}
	htmlBuilder.WriteString("</main>\n</div>\n")

	if !renderer.opts.NoScript {
		htmlBuilder.WriteString(accordionScript())
	}
	if !renderer.opts.Fragment {
		htmlBuilder.WriteString("</body>\n</html>\n")
	}
	return htmlBuilder.String()
}

func (renderer *Renderer) writeTOC(htmlBuilder *strings.Builder, toc []structure.TOCEntry) {
	articleWord := renderer.patterns.UnitWord(lexicon.UnitArticle)
	clauseWord := renderer.patterns.UnitWord(lexicon.UnitClause)

	htmlBuilder.WriteString("<nav class=\"statute-toc\">\n<ul>\n")
	for _, entry := range toc {
		htmlBuilder.WriteString(fmt.Sprintf("<li><a href=\"#%s\">%s %s</a>",
			html.EscapeString(ArticleAnchor(entry.Article)),
			html.EscapeString(articleWord), html.EscapeString(entry.Article)))
		if len(entry.Clauses) > 0 {
			htmlBuilder.WriteString("\n<ul>\n")
			for _, clauseID := range entry.Clauses {
				htmlBuilder.WriteString(fmt.Sprintf("<li><a href=\"#%s\">%s (%s)</a></li>\n",
					html.EscapeString(ClauseAnchor(entry.Article, clauseID)),
					html.EscapeString(clauseWord), html.EscapeString(clauseID)))
			}
			htmlBuilder.WriteString("</ul>\n")
		}
		htmlBuilder.WriteString("</li>\n")
	}
	htmlBuilder.WriteString("</ul>\n</nav>\n")
}

func (renderer *Renderer) writeArticle(htmlBuilder *strings.Builder, article *structure.Article) {
	label := renderer.patterns.CalloutLabel()
	open := " open"
	if renderer.opts.Collapsed {
		open = ""
	}

	htmlBuilder.WriteString(fmt.Sprintf("<details class=\"article\" id=\"%s\"%s>\n",
		html.EscapeString(ArticleAnchor(article.ID)), open))
	htmlBuilder.WriteString(fmt.Sprintf("<summary>%s %s</summary>\n",
		html.EscapeString(renderer.patterns.UnitWord(lexicon.UnitArticle)), html.EscapeString(article.ID)))

	if text := article.Text(); text != "" {
		htmlBuilder.WriteString(fmt.Sprintf("<p class=\"article-text\">%s</p>\n", html.EscapeString(text)))
	}
	if article.Explanation != "" {
		writeExplanation(htmlBuilder, label, article.Explanation)
	}

	for _, clause := range article.Clauses {
		htmlBuilder.WriteString(fmt.Sprintf("<div class=\"clause\" id=\"%s\">\n",
			html.EscapeString(ClauseAnchor(article.ID, clause.ID))))
		htmlBuilder.WriteString(fmt.Sprintf("<p><span class=\"clause-id\">(%s)</span> %s</p>\n",
			html.EscapeString(clause.ID), html.EscapeString(clause.Text())))

		if len(clause.Points) > 0 {
			htmlBuilder.WriteString("<ol class=\"points\">\n")
			for _, point := range clause.Points {
				htmlBuilder.WriteString(fmt.Sprintf("<li><span class=\"point-label\">%s.</span> %s",
					html.EscapeString(point.Label), html.EscapeString(point.Content)))
				if point.Explanation != "" {
					htmlBuilder.WriteString("\n")
					writeExplanation(htmlBuilder, label, point.Explanation)
				}
				htmlBuilder.WriteString("</li>\n")
			}
			htmlBuilder.WriteString("</ol>\n")
		}
		if clause.Explanation != "" {
			writeExplanation(htmlBuilder, label, clause.Explanation)
		}
		htmlBuilder.WriteString("</div>\n")
	}
	htmlBuilder.WriteString("</details>\n")
}

func writeExplanation(htmlBuilder *strings.Builder, label, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	htmlBuilder.WriteString("<aside class=\"explanation\">\n")
	htmlBuilder.WriteString(fmt.Sprintf("<div class=\"explanation-title\">%s</div>\n", html.EscapeString(label)))
	htmlBuilder.WriteString(fmt.Sprintf("<div class=\"explanation-body\">%s</div>\n", strings.Join(lines, "<br>")))
	htmlBuilder.WriteString("</aside>\n")
}

func statuteHTMLStyles() string {
	return `<style>
.statute { display: flex; gap: 24px; font-family: Georgia, serif; line-height: 1.5; }
.statute-toc { flex: 0 0 220px; position: sticky; top: 0; max-height: 100vh; overflow-y: auto; font-size: 14px; }
.statute-toc ul { list-style: none; padding-left: 12px; }
.statute-toc a { color: #1a4d8f; text-decoration: none; }
.statute-content { flex: 1; max-width: 860px; }
details.article { border-bottom: 1px solid #ddd; padding: 8px 0; }
details.article > summary { font-weight: bold; cursor: pointer; font-size: 1.1em; }
.clause { margin: 8px 0 8px 12px; }
.clause-id { font-weight: bold; }
ol.points { list-style: none; padding-left: 24px; }
.point-label { display: inline-block; min-width: 2em; }
.explanation { background: #fff8e1; border-left: 4px solid #f4b400; margin: 8px 0; padding: 6px 10px; }
.explanation-title { font-weight: bold; font-size: 0.9em; }
</style>
`
}

func accordionScript() string {
	return `<script>
document.querySelectorAll('.statute-toc a').forEach(function (link) {
  link.addEventListener('click', function () {
    var target = document.getElementById(link.getAttribute('href').slice(1));
    var section = target && target.closest('details.article');
    if (section) { section.open = true; }
  });
});
</script>
`
}
