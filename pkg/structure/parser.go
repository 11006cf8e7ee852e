package structure

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/repair"
)

// Parser turns statute text into a Document. A Parser holds no per-document
// state and may be shared between goroutines.
type Parser struct {
	patterns       *lexicon.Patterns
	repairer       *repair.Repairer
	peekBlankLimit int
	sink           Sink
}

// Option configures a Parser.
type Option func(*Parser)

// WithRepairer runs word repair on every line before classification.
func WithRepairer(r *repair.Repairer) Option {
	return func(p *Parser) { p.repairer = r }
}

// WithPeekBlankLimit caps the blank lines the grouping look-ahead skips
// before giving up. Zero means no limit.
func WithPeekBlankLimit(n int) Option {
	return func(p *Parser) {
		if n >= 0 {
			p.peekBlankLimit = n
		}
	}
}

// WithSink receives every diagnostic as it is produced.
func WithSink(s Sink) Option {
	return func(p *Parser) { p.sink = s }
}

// NewParser returns a parser for the given lexicon.
func NewParser(patterns *lexicon.Patterns, opts ...Option) *Parser {
	p := &Parser{patterns: patterns}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// maxLineSize bounds a single input line.
const maxLineSize = 4 * 1024 * 1024

// Parse reads the whole of r and parses it. Only read errors are returned.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return p.ParseLines(lines), nil
}

// ParseString parses text.
func (p *Parser) ParseString(text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return p.ParseLines(nil)
	}
	return p.ParseLines(strings.Split(text, "\n"))
}

// ParseLines parses pre-split lines. The slice is not modified.
func (p *Parser) ParseLines(lines []string) *Document {
	run := &parseRun{
		Parser: p,
		doc:    &Document{Explanations: newExplanationMap()},
	}
	if p.repairer != nil {
		lines = p.repairer.Lines(append([]string(nil), lines...))
	}

	boundary := run.passBody(lines)
	if boundary >= 0 {
		run.doc.HasAnnotationSection = true
		run.doc.Annotation = lines[boundary+1:]
		run.passAnnotation(lines[boundary+1:], boundary+1)
	}
	run.attach()
	run.doc.TOC = BuildTOC(run.doc.Articles)
	return run.doc
}

// parseRun carries the mutable state of one parse.
type parseRun struct {
	*Parser
	doc   *Document
	state State

	// Pass A.
	article *Article
	clause  *Clause

	// Pass B.
	cursor   Key
	buf      []string
	bufLine  int
	grouping bool
	orphaned bool
	general  []string
}

func (r *parseRun) diag(line int, kind DiagnosticKind, key Key, format string, args ...any) {
	d := Diagnostic{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)}
	if key != nil {
		d.Key = key.String()
	}
	r.doc.Diagnostics = append(r.doc.Diagnostics, d)
	if r.sink != nil {
		r.sink(d)
	}
}

// transition moves the FSM and reports whether the table allowed it.
func (r *parseRun) transition(on Event) bool {
	to, ok := next(r.state, on)
	r.state = to
	return ok
}

// passBody builds the tree from the main body and returns the index of the
// annotation marker line, or -1.
func (r *parseRun) passBody(lines []string) int {
	pt := r.patterns
	for i, line := range lines {
		n := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case pt.IsAnnotationBoundary(trimmed):
			r.transition(EventBoundary)
			return i

		case trimmed == "":
			// Blank lines carry no structure.

		case pt.Article.MatchString(line):
			id := pt.Article.FindStringSubmatch(line)[1]
			r.openArticle(n, id)

		case pt.Chapter.MatchString(line):
			// Chapters group articles but are not part of the tree. Their
			// title lines belong to no article.
			r.article, r.clause = nil, nil

		case pt.Clause.MatchString(line):
			m := pt.Clause.FindStringSubmatch(line)
			r.openClause(n, m[1], strings.TrimSpace(m[2]))

		case pt.Point.MatchString(line):
			m := pt.Point.FindStringSubmatch(line)
			r.openPoint(n, m[1], strings.TrimSpace(m[2]), trimmed)

		default:
			switch {
			case r.clause != nil:
				r.clause.Lines = append(r.clause.Lines, trimmed)
			case r.article != nil:
				r.article.Lines = append(r.article.Lines, trimmed)
			}
		}
		r.doc.Body = append(r.doc.Body, line)
	}
	return -1
}

func (r *parseRun) openArticle(line int, id string) {
	r.clause = nil
	if a := r.doc.Article(id); a != nil {
		r.diag(line, DiagDuplicateArticle, ArticleKey{id}, "article %s repeated, continuing the first occurrence", id)
		r.article = a
		return
	}
	r.article = &Article{ID: id, Sequence: len(r.doc.Articles) + 1}
	r.doc.Articles = append(r.doc.Articles, r.article)
}

func (r *parseRun) openClause(line int, id, rest string) {
	if r.article == nil {
		r.diag(line, DiagOrphanClause, nil, "clause (%s) outside any article dropped", id)
		return
	}
	c := r.article.Clause(id)
	if c != nil {
		r.diag(line, DiagDuplicateClause, ClauseKey{r.article.ID, id}, "clause (%s) repeated in article %s", id, r.article.ID)
	} else {
		c = &Clause{ID: id}
		r.article.Clauses = append(r.article.Clauses, c)
	}
	if rest != "" {
		c.Lines = append(c.Lines, rest)
	}
	r.clause = c
}

func (r *parseRun) openPoint(line int, label, rest, trimmed string) {
	switch {
	case r.clause == nil && r.article != nil:
		r.diag(line, DiagOrphanPoint, ArticleKey{r.article.ID}, "point %s without a clause kept as article text", label)
		r.article.Lines = append(r.article.Lines, trimmed)
		return
	case r.clause == nil:
		r.diag(line, DiagOrphanPoint, nil, "point %s outside any article dropped", label)
		return
	}
	if pt := r.clause.Point(label); pt != nil {
		r.diag(line, DiagDuplicatePoint, PointKey{r.article.ID, r.clause.ID, label}, "point %s repeated in clause (%s)", label, r.clause.ID)
		if rest != "" {
			pt.Content = strings.TrimSpace(pt.Content + " " + rest)
		}
		return
	}
	r.clause.Points = append(r.clause.Points, &Point{Label: label, Content: rest})
}

// noteLine is one classified annotation line.
type noteLine struct {
	event  Event
	id     string // article or clause id
	point  string // point label, also set on clause headers that name a point
	inline string
}

func (r *parseRun) classifyNote(line string) noteLine {
	pt := r.patterns
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return noteLine{event: EventBlank}
	case pt.NoteArticle.MatchString(trimmed):
		m := pt.NoteArticle.FindStringSubmatch(trimmed)
		return noteLine{event: EventArticleHeader, id: m[1], inline: strings.TrimSpace(m[2])}
	case pt.NoteClause.MatchString(trimmed):
		m := pt.NoteClause.FindStringSubmatch(trimmed)
		return noteLine{event: EventClauseHeader, id: m[1], point: m[2], inline: strings.TrimSpace(m[3])}
	case pt.NotePoint.MatchString(trimmed):
		m := pt.NotePoint.FindStringSubmatch(trimmed)
		return noteLine{event: EventPointHeader, point: m[1], inline: strings.TrimSpace(m[2])}
	case pt.IsAnnotationBoundary(trimmed):
		return noteLine{event: EventBoundary}
	case pt.Chapter.MatchString(trimmed):
		return noteLine{event: EventChapter}
	default:
		return noteLine{event: EventText}
	}
}

// passAnnotation builds the explanation map. offset converts slice indexes
// to input line numbers.
func (r *parseRun) passAnnotation(lines []string, offset int) {
	for i, line := range lines {
		n := offset + i + 1
		nl := r.classifyNote(line)

		switch nl.event {
		case EventBlank:
			continue

		case EventBoundary:
			r.flush()
			r.cursor = nil
			r.orphaned = false
			r.transition(EventBoundary)

		case EventChapter:
			// A chapter closes every open unit. Its title lines explain
			// nothing, so text is dropped until the next header.
			r.flush()
			r.cursor = nil
			r.orphaned = true
			r.transition(EventChapter)

		case EventArticleHeader:
			r.flush()
			r.open(ArticleKey{nl.id}, EventArticleHeader, n, nl.inline, lines[i+1:])

		case EventClauseHeader:
			art, ok := r.currentArticle()
			if !ok {
				r.diag(n, DiagUnattachedNote, nil, "clause (%s) note outside any article context dropped", nl.id)
				r.orphaned = true
				continue
			}
			r.flush()
			ck := ClauseKey{ArticleID: art, ClauseID: nl.id}
			if nl.point == "" {
				r.open(ck, EventClauseHeader, n, nl.inline, lines[i+1:])
				continue
			}
			// "Clause (N) Point x" opens the clause context and the point in one line.
			if r.open(ck, EventClauseHeader, n, "", nil) {
				r.open(PointKey{ArticleID: art, ClauseID: nl.id, Label: nl.point}, EventPointHeader, n, nl.inline, nil)
			}

		case EventPointHeader:
			ck, ok := r.currentClause()
			if !ok {
				// A point note needs a clause; its text never falls to the parent.
				r.flush()
				r.diag(n, DiagOrphanPoint, r.cursor, "point %s note without a clause context dropped", nl.point)
				r.orphaned = true
				continue
			}
			r.flush()
			r.open(PointKey{ArticleID: ck.ArticleID, ClauseID: ck.ClauseID, Label: nl.point}, EventPointHeader, n, nl.inline, nil)

		case EventText:
			r.text(n, strings.TrimSpace(line))
		}
	}
	r.flush()
	r.cursor = nil
}

func (r *parseRun) currentArticle() (string, bool) {
	switch k := r.cursor.(type) {
	case ArticleKey:
		return k.ArticleID, true
	case ClauseKey:
		return k.ArticleID, true
	case PointKey:
		return k.ArticleID, true
	}
	return "", false
}

func (r *parseRun) currentClause() (ClauseKey, bool) {
	switch k := r.cursor.(type) {
	case ClauseKey:
		return k, true
	case PointKey:
		return k.Parent(), true
	}
	return ClauseKey{}, false
}

// open makes k the current context once the transition table accepts on.
// Without inline text, the look-ahead decides whether k is a pure grouping
// marker for child notes.
func (r *parseRun) open(k Key, on Event, line int, inline string, rest []string) bool {
	from := r.state
	if !r.transition(on) || r.state != stateFor(k) {
		r.state = from
		r.diag(line, DiagUnattachedNote, k, "%s note cannot open from %s, dropped", k, from)
		r.orphaned = true
		return false
	}
	r.cursor = k
	r.bufLine = line
	r.buf = r.buf[:0]
	r.grouping = false
	r.orphaned = false
	if inline != "" {
		r.buf = append(r.buf, inline)
		return true
	}
	if k.Level() != lexicon.UnitPoint {
		r.grouping = r.peekGrouping(k, line, rest)
	}
	return true
}

// peekGrouping looks past blank lines for the next meaningful line. A child
// header there means k only groups its children and owns no text.
func (r *parseRun) peekGrouping(k Key, line int, rest []string) bool {
	blanks := 0
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			blanks++
			if r.peekBlankLimit > 0 && blanks > r.peekBlankLimit {
				r.diag(line, DiagPeekAbandoned, k, "look-ahead gave up after %d blank lines", r.peekBlankLimit)
				return false
			}
			continue
		}
		nl := r.classifyNote(l)
		child := false
		switch k.(type) {
		case ArticleKey:
			child = nl.event == EventClauseHeader || nl.event == EventPointHeader
		case ClauseKey:
			ck := k.(ClauseKey)
			child = nl.event == EventPointHeader ||
				(nl.event == EventClauseHeader && nl.id == ck.ClauseID && nl.point != "")
		}
		if child {
			r.diag(line, DiagGrouping, k, "%s only groups its children", k)
		}
		return child
	}
	return false
}

func (r *parseRun) text(line int, text string) {
	if r.orphaned {
		return
	}
	if r.cursor == nil {
		r.general = append(r.general, text)
		return
	}
	if len(r.buf) == 0 {
		r.bufLine = line
	}
	r.buf = append(r.buf, text)
}

// flush stores the buffered note for the current context. Grouping markers,
// empty buffers and sentinel-only notes are not stored.
func (r *parseRun) flush() {
	if r.cursor == nil || len(r.buf) == 0 || r.grouping {
		r.buf = r.buf[:0]
		return
	}
	text := strings.Join(r.buf, "\n")
	r.buf = r.buf[:0]

	if r.patterns.IsSentinel(text) {
		r.diag(r.bufLine, DiagSentinel, r.cursor, "%s is sufficiently clear, no note stored", r.cursor)
		return
	}
	if r.doc.Explanations.add(r.cursor, text) {
		r.diag(r.bufLine, DiagAppendedNote, r.cursor, "second note for %s appended to the first", r.cursor)
	}
}

// attach copies notes from the map onto the tree.
func (r *parseRun) attach() {
	if len(r.general) > 0 {
		r.doc.GeneralExplanation = strings.Join(r.general, "\n")
	}
	m := r.doc.Explanations
	for _, k := range m.Keys() {
		text, _ := m.Lookup(k)
		a, c, p := r.doc.Lookup(k)
		switch k.(type) {
		case ArticleKey:
			if a != nil {
				a.Explanation = text
				continue
			}
		case ClauseKey:
			if c != nil {
				c.Explanation = text
				continue
			}
		case PointKey:
			if p != nil {
				p.Explanation = text
				continue
			}
		}
		r.diag(0, DiagOrphanNote, k, "note for %s has no matching unit in the body", k)
	}
}
