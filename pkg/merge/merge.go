// Package merge re-inserts explanatory notes into the main body text, each
// directly after the last line of the unit it explains.
package merge

import (
	"strings"

	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/structure"
)

// Merger walks body text and places note callouts. It is stateless between
// calls and safe for concurrent use.
type Merger struct {
	patterns *lexicon.Patterns
}

// New returns a Merger using the given lexicon for header detection and
// callout formatting.
func New(patterns *lexicon.Patterns) *Merger {
	return &Merger{patterns: patterns}
}

// MergeDocument merges a parsed document's notes into its body.
func (m *Merger) MergeDocument(doc *structure.Document) string {
	return m.Merge(doc.Body, doc.Explanations)
}

// pending is a callout waiting for its unit to close.
type pending struct {
	key  structure.Key
	text string
}

// walk holds the state of one Merge call.
type walk struct {
	*Merger
	notes   *structure.ExplanationMap
	out     []string
	emitted map[structure.Key]bool

	article, clause string
	// One slot per level, flushed deepest first.
	slots [3]*pending
}

const (
	slotArticle = iota
	slotClause
	slotPoint
)

// Merge returns body with every note from notes inserted as a callout. A
// note is emitted when its unit closes: a point closes at the next point,
// clause, article or chapter line; a clause at the next clause, article or
// chapter line; an article at the next article or chapter line. Anything
// still open is flushed at the end, deepest level first.
func (m *Merger) Merge(body []string, notes *structure.ExplanationMap) string {
	w := &walk{Merger: m, notes: notes, emitted: make(map[structure.Key]bool)}
	pt := m.patterns

	for _, line := range body {
		switch {
		case pt.Article.MatchString(line):
			w.flush(slotPoint, slotClause, slotArticle)
			w.article = pt.Article.FindStringSubmatch(line)[1]
			w.clause = ""
			w.hold(slotArticle, structure.ArticleKey{ArticleID: w.article})

		case pt.Chapter.MatchString(line):
			w.flush(slotPoint, slotClause, slotArticle)
			w.article, w.clause = "", ""

		case w.article != "" && pt.Clause.MatchString(line):
			w.flush(slotPoint, slotClause)
			w.clause = pt.Clause.FindStringSubmatch(line)[1]
			w.hold(slotClause, structure.ClauseKey{ArticleID: w.article, ClauseID: w.clause})

		case w.clause != "" && pt.Point.MatchString(line):
			w.flush(slotPoint)
			label := pt.Point.FindStringSubmatch(line)[1]
			w.hold(slotPoint, structure.PointKey{ArticleID: w.article, ClauseID: w.clause, Label: label})
		}
		w.out = append(w.out, line)
	}
	w.flush(slotPoint, slotClause, slotArticle)

	return strings.Join(w.out, "\n")
}

// hold parks the note for k, if any, in its level's slot.
func (w *walk) hold(slot int, k structure.Key) {
	w.slots[slot] = nil
	if w.emitted[k] {
		return
	}
	if text, ok := w.notes.Lookup(k); ok {
		w.slots[slot] = &pending{key: k, text: text}
	}
}

// flush emits the given slots in order and clears them.
func (w *walk) flush(slots ...int) {
	for _, s := range slots {
		p := w.slots[s]
		if p == nil {
			continue
		}
		w.slots[s] = nil
		w.emitted[p.key] = true
		w.out = append(w.out, w.header(p.key))
		w.out = append(w.out, strings.Split(p.text, "\n")...)
		w.out = append(w.out, "")
	}
}

func (w *walk) header(k structure.Key) string {
	switch k := k.(type) {
	case structure.ArticleKey:
		return w.patterns.CalloutHeader(lexicon.UnitArticle, k.ArticleID)
	case structure.ClauseKey:
		return w.patterns.CalloutHeader(lexicon.UnitClause, k.ClauseID)
	case structure.PointKey:
		return w.patterns.CalloutHeader(lexicon.UnitPoint, k.Label)
	}
	return ""
}
