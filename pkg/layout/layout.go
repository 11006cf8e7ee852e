// Package layout turns flat statute text into block HTML: paragraphs with
// indentation, headings, two-column numbered lists and note callouts.
package layout

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/coolbeans/pasal/pkg/lexicon"
)

// DefaultIndentPx is the left margin per leading space.
const DefaultIndentPx = 4

// tabWidth is the number of spaces a leading tab counts for.
const tabWidth = 4

// minHeadingLength is the shortest all-uppercase line treated as a heading.
const minHeadingLength = 10

// numberingPattern matches list labels at line start: "1.", "a)", "iv.",
// "(2)", "(b)".
var numberingPattern = regexp.MustCompile(`^\s*((?:\d{1,3}|[A-Za-z]|[ivxlcdm]{1,6}|[IVXLCDM]{1,6})[.)]|\(\s*(?:\d{1,3}|[A-Za-z]|[ivxlcdm]{1,6})\s*\))\s+(.*)$`)

// Options tunes the formatter.
type Options struct {
	// IndentPx is the margin in pixels per leading space.
	IndentPx int
}

// Formatter renders text to HTML. It is safe for concurrent use.
type Formatter struct {
	patterns *lexicon.Patterns
	indentPx int
}

// New returns a formatter for the given lexicon.
func New(patterns *lexicon.Patterns, opts Options) *Formatter {
	f := &Formatter{patterns: patterns, indentPx: opts.IndentPx}
	if f.indentPx <= 0 {
		f.indentPx = DefaultIndentPx
	}
	return f
}

// block is the paragraph or list item being accumulated.
type block struct {
	lines  []string
	indent int
	label  string // set for list items
}

type callout struct {
	unit   lexicon.Unit
	target string
	title  string
	lines  []string
}

// formatRun is the state of one Format call.
type formatRun struct {
	*Formatter
	htmlBuilder strings.Builder
	current     *block
	inList      bool
	note        *callout
}

// Format converts text to HTML, one classification per line in priority
// order: callout header, blank, intro keyword, section marker, uppercase
// heading, numbering, plain text.
func (f *Formatter) Format(text string) string {
	run := &formatRun{Formatter: f}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if run.note != nil {
			if trimmed == "" {
				run.flushCallout()
			} else {
				run.note.lines = append(run.note.lines, trimmed)
			}
			continue
		}

		if u, target, rest, ok := f.patterns.MatchCallout(line); ok {
			run.closeAll()
			title := strings.TrimSpace(trimmed[:len(trimmed)-len(rest)])
			run.note = &callout{unit: u, target: target, title: strings.TrimSuffix(title, ":")}
			if rest != "" {
				run.note.lines = append(run.note.lines, rest)
			}
			continue
		}

		if trimmed == "" {
			run.flushBlock()
			if run.inList && !nextIsNumbered(lines[i+1:]) {
				run.closeList()
			}
			continue
		}

		if keyword, rest, ok := f.patterns.MatchIntro(line); ok {
			run.closeAll()
			fmt.Fprintf(&run.htmlBuilder, "<h4 class=\"intro\">%s</h4>\n", html.EscapeString(keyword))
			if m := numberingPattern.FindStringSubmatch(rest); m != nil {
				run.openItem(m[1], m[2])
			} else if rest != "" {
				run.current = &block{lines: []string{rest}}
			}
			continue
		}

		if f.patterns.Section.MatchString(line) {
			run.closeAll()
			fmt.Fprintf(&run.htmlBuilder, "<h2>%s</h2>\n", html.EscapeString(trimmed))
			continue
		}

		if isUpperHeading(trimmed) {
			run.closeAll()
			fmt.Fprintf(&run.htmlBuilder, "<h3>%s</h3>\n", html.EscapeString(trimmed))
			continue
		}

		if m := numberingPattern.FindStringSubmatch(line); m != nil {
			run.openItem(m[1], m[2])
			continue
		}

		if run.current == nil {
			run.current = &block{indent: leadingSpaces(line)}
		}
		run.current.lines = append(run.current.lines, trimmed)
	}

	run.flushCallout()
	run.closeAll()
	return run.htmlBuilder.String()
}

func (r *formatRun) openItem(label, content string) {
	r.flushBlock()
	if !r.inList {
		r.htmlBuilder.WriteString("<ul class=\"numbered\" style=\"list-style:none;padding-left:0\">\n")
		r.inList = true
	}
	r.current = &block{label: label}
	if content = strings.TrimSpace(content); content != "" {
		r.current.lines = append(r.current.lines, content)
	}
}

func (r *formatRun) flushBlock() {
	b := r.current
	r.current = nil
	if b == nil {
		return
	}
	text := html.EscapeString(strings.Join(b.lines, " "))
	if b.label != "" {
		fmt.Fprintf(&r.htmlBuilder,
			"<li style=\"display:flex;gap:0.5em\"><span class=\"num\" style=\"flex:0 0 3em\">%s</span><span class=\"content\" style=\"flex:1\">%s</span></li>\n",
			html.EscapeString(b.label), text)
		return
	}
	if r.inList {
		// Plain text between items after a list stays inside the list.
		fmt.Fprintf(&r.htmlBuilder, "<li style=\"display:block\">%s</li>\n", text)
		return
	}
	if b.indent > 0 {
		fmt.Fprintf(&r.htmlBuilder, "<p style=\"margin-left:%dpx\">%s</p>\n", b.indent*r.indentPx, text)
		return
	}
	fmt.Fprintf(&r.htmlBuilder, "<p>%s</p>\n", text)
}

func (r *formatRun) closeList() {
	if r.inList {
		r.htmlBuilder.WriteString("</ul>\n")
		r.inList = false
	}
}

func (r *formatRun) closeAll() {
	r.flushBlock()
	r.closeList()
}

func (r *formatRun) flushCallout() {
	c := r.note
	r.note = nil
	if c == nil {
		return
	}
	fmt.Fprintf(&r.htmlBuilder, "<div class=\"explanation explanation-%s\" data-target=\"%s\">\n",
		c.unit, html.EscapeString(c.target))
	fmt.Fprintf(&r.htmlBuilder, "<div class=\"explanation-title\">%s</div>\n", html.EscapeString(c.title))
	escaped := make([]string, len(c.lines))
	for i, l := range c.lines {
		escaped[i] = html.EscapeString(l)
	}
	fmt.Fprintf(&r.htmlBuilder, "<div class=\"explanation-body\">%s</div>\n", strings.Join(escaped, "<br>"))
	r.htmlBuilder.WriteString("</div>\n")
}

func nextIsNumbered(rest []string) bool {
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			continue
		}
		return numberingPattern.MatchString(l)
	}
	return false
}

func isUpperHeading(s string) bool {
	if len([]rune(s)) < minHeadingLength {
		return false
	}
	letters := 0
	for _, c := range s {
		if unicode.IsLetter(c) {
			if !unicode.IsUpper(c) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}

func leadingSpaces(line string) int {
	n := 0
	for _, c := range line {
		switch c {
		case ' ':
			n++
		case '\t':
			n += tabWidth
		default:
			return n
		}
	}
	return n
}
