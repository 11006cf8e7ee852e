// Package structure turns statute text into an Article → Clause → Point tree
// and collects the explanatory notes from the document's annotation section
// into an ExplanationMap keyed by structural position.
package structure

import (
	"strings"
)

// Point is a lettered or numbered subdivision of a Clause.
type Point struct {
	Label       string `json:"label"`
	Content     string `json:"content"`
	Explanation string `json:"explanation,omitempty"`
}

// Clause is a numbered subdivision of an Article.
type Clause struct {
	ID          string   `json:"id"`
	Lines       []string `json:"lines"`
	Points      []*Point `json:"points,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// Text joins the clause's content lines with single spaces.
func (c *Clause) Text() string {
	return strings.Join(c.Lines, " ")
}

// Point returns the point labelled label, or nil.
func (c *Clause) Point(label string) *Point {
	for _, p := range c.Points {
		if p.Label == label {
			return p
		}
	}
	return nil
}

// Article is a top-level numbered statutory unit. Lines holds content that
// appears before the first clause, which is all of it for clause-less articles.
type Article struct {
	ID          string    `json:"id"`
	Sequence    int       `json:"sequence"`
	Lines       []string  `json:"lines,omitempty"`
	Clauses     []*Clause `json:"clauses,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
}

// Clause returns the clause with the given id, or nil.
func (a *Article) Clause(id string) *Clause {
	for _, c := range a.Clauses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Text joins the article's own lines with single spaces.
func (a *Article) Text() string {
	return strings.Join(a.Lines, " ")
}

// TOCEntry is one navigation entry: an article and its clause ids in order.
type TOCEntry struct {
	Article string   `json:"article"`
	Clauses []string `json:"clauses,omitempty"`
}

// BuildTOC derives the table of contents from the tree.
func BuildTOC(articles []*Article) []TOCEntry {
	toc := make([]TOCEntry, 0, len(articles))
	for _, a := range articles {
		e := TOCEntry{Article: a.ID}
		for _, c := range a.Clauses {
			e.Clauses = append(e.Clauses, c.ID)
		}
		toc = append(toc, e)
	}
	return toc
}

// Document is the result of one parse.
type Document struct {
	Articles     []*Article      `json:"articles"`
	TOC          []TOCEntry      `json:"toc"`
	Explanations *ExplanationMap `json:"explanations"`

	// Body holds the (repaired) main-body lines, Annotation the lines after
	// the annotation-section marker.
	Body       []string `json:"-"`
	Annotation []string `json:"-"`

	// GeneralExplanation is annotation text that precedes the first
	// article-level note.
	GeneralExplanation   string `json:"general_explanation,omitempty"`
	HasAnnotationSection bool   `json:"has_annotation_section"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Article returns the article with the given id, or nil.
func (d *Document) Article(id string) *Article {
	for _, a := range d.Articles {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Empty reports whether no article was found.
func (d *Document) Empty() bool {
	return len(d.Articles) == 0
}

// Lookup resolves a key to the unit it names in the tree.
func (d *Document) Lookup(k Key) (article *Article, clause *Clause, point *Point) {
	switch k := k.(type) {
	case ArticleKey:
		return d.Article(k.ArticleID), nil, nil
	case ClauseKey:
		if a := d.Article(k.ArticleID); a != nil {
			return a, a.Clause(k.ClauseID), nil
		}
	case PointKey:
		if a := d.Article(k.ArticleID); a != nil {
			if c := a.Clause(k.ClauseID); c != nil {
				return a, c, c.Point(k.Label)
			}
			return a, nil, nil
		}
	}
	return nil, nil, nil
}
