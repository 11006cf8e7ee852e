package structure

import (
	"encoding/json"

	"github.com/coolbeans/pasal/pkg/lexicon"
)

// Key identifies a unit an explanation belongs to. It is implemented only by
// ArticleKey, ClauseKey and PointKey.
type Key interface {
	Level() lexicon.Unit
	String() string
	isKey()
}

// ArticleKey names an article.
type ArticleKey struct {
	ArticleID string
}

// ClauseKey names a clause within an article.
type ClauseKey struct {
	ArticleID string
	ClauseID  string
}

// PointKey names a point within a clause.
type PointKey struct {
	ArticleID string
	ClauseID  string
	Label     string
}

func (ArticleKey) Level() lexicon.Unit { return lexicon.UnitArticle }
func (ClauseKey) Level() lexicon.Unit  { return lexicon.UnitClause }
func (PointKey) Level() lexicon.Unit   { return lexicon.UnitPoint }

func (k ArticleKey) String() string { return "article " + k.ArticleID }
func (k ClauseKey) String() string  { return "article " + k.ArticleID + " clause " + k.ClauseID }
func (k PointKey) String() string {
	return "article " + k.ArticleID + " clause " + k.ClauseID + " point " + k.Label
}

func (ArticleKey) isKey() {}
func (ClauseKey) isKey()  {}
func (PointKey) isKey()   {}

// Parent returns the owning article.
func (k ClauseKey) Parent() ArticleKey { return ArticleKey{ArticleID: k.ArticleID} }

// Parent returns the owning clause.
func (k PointKey) Parent() ClauseKey {
	return ClauseKey{ArticleID: k.ArticleID, ClauseID: k.ClauseID}
}

// ExplanationMap maps keys to explanatory text. It is filled by the parser
// and read-only afterwards. Keys iterate in the order they were first added.
type ExplanationMap struct {
	entries map[Key]string
	order   []Key
}

func newExplanationMap() *ExplanationMap {
	return &ExplanationMap{entries: make(map[Key]string)}
}

// add stores text under k, appending to an existing note. It reports whether
// the key was already present.
func (m *ExplanationMap) add(k Key, text string) bool {
	if prev, ok := m.entries[k]; ok {
		m.entries[k] = prev + "\n" + text
		return true
	}
	m.entries[k] = text
	m.order = append(m.order, k)
	return false
}

// Lookup returns the explanation stored for k.
func (m *ExplanationMap) Lookup(k Key) (string, bool) {
	if m == nil {
		return "", false
	}
	text, ok := m.entries[k]
	return text, ok
}

// Len returns the number of explained units.
func (m *ExplanationMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Keys returns the keys in insertion order.
func (m *ExplanationMap) Keys() []Key {
	if m == nil {
		return nil
	}
	return append([]Key(nil), m.order...)
}

type explanationEntry struct {
	Level   string `json:"level"`
	Key     string `json:"key"`
	Article string `json:"article"`
	Clause  string `json:"clause,omitempty"`
	Point   string `json:"point,omitempty"`
	Text    string `json:"text"`
}

// MarshalJSON renders the map as an ordered list of entries.
func (m *ExplanationMap) MarshalJSON() ([]byte, error) {
	out := make([]explanationEntry, 0, m.Len())
	for _, k := range m.Keys() {
		e := explanationEntry{Level: k.Level().String(), Key: k.String(), Text: m.entries[k]}
		switch k := k.(type) {
		case ArticleKey:
			e.Article = k.ArticleID
		case ClauseKey:
			e.Article, e.Clause = k.ArticleID, k.ClauseID
		case PointKey:
			e.Article, e.Clause, e.Point = k.ArticleID, k.ClauseID, k.Label
		}
		out = append(out, e)
	}
	return json.Marshal(out)
}
